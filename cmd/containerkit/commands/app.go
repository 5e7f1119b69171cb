package commands

import (
	"github.com/systmms/containerkit/internal/config"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/pkg/redact"
	"github.com/systmms/containerkit/pkg/secrets"
)

// App carries the state the root command assembles before any
// subcommand runs: parsed configuration, the logger, the redaction
// vocabulary and the secret store fed from the mounted folder.
type App struct {
	Config       config.Config
	Logger       *logging.Logger
	Vocab        *redact.Vocabulary
	Secrets      *secrets.Store
	RestoreStdio func()
}

// Close uninstalls the stdio redaction, flushing anything buffered.
func (a *App) Close() {
	if a.RestoreStdio != nil {
		a.RestoreStdio()
		a.RestoreStdio = nil
	}
}
