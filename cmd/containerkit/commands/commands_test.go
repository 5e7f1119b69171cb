package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/containerkit/internal/config"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/pkg/redact"
	"github.com/systmms/containerkit/pkg/secrets"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	logger := logging.New(false, true)
	logger.SetOutput(&bytes.Buffer{})

	vocab := redact.NewVocabulary()
	return &App{
		Config:  config.Default(),
		Logger:  logger,
		Vocab:   vocab,
		Secrets: secrets.NewStore(vocab, logger),
	}
}

func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRedactCommand_MasksStdin(t *testing.T) {
	app := newTestApp(t)
	app.Vocab.Add("hunter2")

	out, err := runCommand(t, NewRedactCommand(app), "password is hunter2\n")
	require.NoError(t, err)
	assert.Equal(t, "password is *******\n", out)
}

func TestRedactCommand_ExtraWords(t *testing.T) {
	app := newTestApp(t)

	out, err := runCommand(t, NewRedactCommand(app),
		"token=sk_live_12345 end\n", "--word", "sk_live_12345")
	require.NoError(t, err)
	assert.Equal(t, "token=************* end\n", out)
}

func TestSecretsScanCommand_ListsEntries(t *testing.T) {
	app := newTestApp(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wh.json"),
		[]byte(`{"user": "etl", "password": "T0P-Secret"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.txt"),
		[]byte("opaque-token"), 0o600))
	app.Secrets.ProcessFolder(dir)

	out, err := runCommand(t, NewSecretsCommand(app), "", "scan")
	require.NoError(t, err)

	assert.Contains(t, out, "wh.json")
	assert.Contains(t, out, "structured")
	assert.Contains(t, out, "token.txt")
	assert.Contains(t, out, "opaque")
	assert.NotContains(t, out, "T0P-Secret", "values never appear in scan output")
	assert.NotContains(t, out, "opaque-token")
}

func TestSecretsGetCommand_FileSourceWithField(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "wh.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"user": "etl", "password": "T0P-Secret"}`), 0o600))

	out, err := runCommand(t, NewSecretsCommand(app), "",
		"get", "--name", path, "--field", "user")
	require.NoError(t, err)
	assert.Equal(t, "etl\n", out)

	assert.True(t, app.Vocab.Contains("T0P-Secret"),
		"fetched values join the redaction vocabulary")
}

func TestSecretsGetCommand_MissingFile(t *testing.T) {
	app := newTestApp(t)

	_, err := runCommand(t, NewSecretsCommand(app), "",
		"get", "--name", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secrets scan")
}

func TestSecretsGetCommand_GCPRejectsBadServiceAccount(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"type": "service_account", "project_id": "p"}`), 0o600))

	_, err := runCommand(t, NewSecretsCommand(app), "",
		"get", "--source", "gcp", "--name", "x",
		"--project-id", "p", "--sa-key", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service account")
}

func TestTasksCommands_RecordThenList(t *testing.T) {
	app := newTestApp(t)
	app.Config.Tasks.Dir = t.TempDir()

	_, err := runCommand(t, NewTasksCommand(app), "",
		"record", "--dag-id", "nightly", "--run-id", "r1",
		"--task-id", "extract", "--status", "running")
	require.NoError(t, err)

	_, err = runCommand(t, NewTasksCommand(app), "",
		"record", "--dag-id", "nightly", "--run-id", "r1",
		"--task-id", "extract", "--status", "success",
		"--metadata", `{"rows": 42}`)
	require.NoError(t, err)

	out, err := runCommand(t, NewTasksCommand(app), "",
		"list", "--dag-id", "nightly")
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"success"`)
	assert.Contains(t, out, `"rows":42`)
	assert.Contains(t, out, "1 entries")
}

func TestTasksRecordCommand_RequiresIdentifiers(t *testing.T) {
	app := newTestApp(t)
	app.Config.Tasks.Dir = t.TempDir()

	_, err := runCommand(t, NewTasksCommand(app), "",
		"record", "--dag-id", "nightly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}
