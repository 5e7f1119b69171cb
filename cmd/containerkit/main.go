package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/containerkit/cmd/containerkit/commands"
	"github.com/systmms/containerkit/internal/config"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/internal/metrics"
	"github.com/systmms/containerkit/pkg/redact"
	"github.com/systmms/containerkit/pkg/secrets"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Global flags
	var (
		configFile   string
		secretFolder string
		noColor      bool
		debug        bool
		noRedact     bool
	)

	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "containerkit",
		Short: "Batch-task toolkit - secrets, redaction, storage and warehouse plumbing",
		Long: `containerkit wires up the boilerplate a containerized batch task needs:
it loads mounted secrets, masks them in everything the process prints,
and moves data between object storage, the warehouse and the task log.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if secretFolder != "" {
				cfg.SecretFolder = secretFolder
			}

			logger := logging.New(debug, noColor)
			vocab := redact.NewVocabulary()
			store := secrets.NewStore(vocab, logger)
			store.ProcessFolder(cfg.SecretFolder)

			if cfg.Metrics.Enabled {
				metrics.InitMetrics()
				if cfg.Metrics.Listen != "" {
					go func() {
						mux := http.NewServeMux()
						mux.Handle("/metrics", metrics.Handler())
						if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
							logger.Warn("Metrics listener stopped: %v", err)
						}
					}()
				}
			}

			app.Config = cfg
			app.Logger = logger
			app.Vocab = vocab
			app.Secrets = store

			// Everything the process prints from here on is masked,
			// including the logger's own output.
			if !noRedact {
				restore, err := redact.WrapStdio(vocab)
				if err != nil {
					return fmt.Errorf("failed to install output redaction: %w", err)
				}
				app.RestoreStdio = restore
				// The logger captured the real stderr at construction;
				// point it at the wrapped stream.
				logger.SetOutput(os.Stderr)
			}
			return nil
		},
	}

	// Cobra skips PostRun hooks when a command fails, so stdio has to
	// be restored here or the error diagnostic never drains out of the
	// redaction pipes before the process exits.
	defer app.Close()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVar(&secretFolder, "secret-folder", "", "Override the secret folder to scan")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noRedact, "no-redact", false, "Disable output redaction (unsafe outside local runs)")

	rootCmd.AddCommand(
		commands.NewRedactCommand(app),
		commands.NewSecretsCommand(app),
		commands.NewStorageCommand(app),
		commands.NewWarehouseCommand(app),
		commands.NewTasksCommand(app),
	)

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
