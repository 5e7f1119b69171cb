package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/pkg/secrets"
)

func NewSecretsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Inspect and fetch secrets",
	}

	cmd.AddCommand(
		newSecretsScanCommand(app),
		newSecretsGetCommand(app),
	)
	return cmd
}

func newSecretsScanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List the secret files loaded from the secret folder",
		Long: `List every secret file discovered under the secret folder, with its
kind (opaque or structured) and, for structured secrets, its field names.
Values are never printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := app.Secrets.Paths()
			if len(paths) == 0 {
				app.Logger.Info("No secrets loaded from %s", app.Config.SecretFolder)
				return nil
			}

			for _, path := range paths {
				value, _ := app.Secrets.Lookup(path)
				switch value.Kind {
				case secrets.KindStructured:
					fields := make([]string, 0, len(value.Fields))
					for name := range value.Fields {
						fields = append(fields, name)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tstructured\t%v\n", path, fields)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\topaque\n", path)
				}
			}
			return nil
		},
	}
}

func newSecretsGetCommand(app *App) *cobra.Command {
	var (
		source    string
		name      string
		field     string
		region    string
		endpoint  string
		projectID string
		saKeyPath string
		service   string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch one secret from a file, the OS keyring or a cloud source",
		Long: `Fetch a single secret and print it to stdout.

Output redaction applies to this command like any other: the value will
appear masked unless --no-redact is passed. That is intentional; use
--no-redact only in local runs.

Examples:
  containerkit secrets get --name /vault/secrets/warehouse-credentials.json --field password
  containerkit secrets get --source keyring --name github-token
  containerkit secrets get --source aws --name warehouse/creds --region eu-west-1
  containerkit secrets get --source gcp --name warehouse-creds --project-id data-pipelines`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return dserrors.UserError{
					Message:    "Secret name is required",
					Suggestion: "Use --name <path-or-secret-name> to specify which secret to fetch",
				}
			}

			value, err := fetchSecret(cmd, app, source, name, region, endpoint, projectID, saKeyPath, service)
			if err != nil {
				return err
			}

			// Anything fetched here must be masked if it later leaks.
			app.Vocab.Add(value.Words()...)

			return printSecret(cmd, value, field)
		},
	}

	cmd.Flags().StringVar(&source, "source", "file", "Where to fetch from: file, keyring, aws or gcp")
	cmd.Flags().StringVar(&name, "name", "", "Secret file path (file) or secret name (keyring, aws, gcp)")
	cmd.Flags().StringVar(&field, "field", "", "Print a single field of a structured secret")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (aws)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "AWS endpoint override (aws)")
	cmd.Flags().StringVar(&projectID, "project-id", "", "GCP project ID (gcp)")
	cmd.Flags().StringVar(&saKeyPath, "sa-key", "", "GCP service account key file (gcp)")
	cmd.Flags().StringVar(&service, "service", "", "Keyring service name (keyring)")
	return cmd
}

func fetchSecret(cmd *cobra.Command, app *App, source, name, region, endpoint, projectID, saKeyPath, service string) (secrets.Value, error) {
	ctx := cmd.Context()

	switch source {
	case "file":
		if value, ok := app.Secrets.Lookup(name); ok {
			return value, nil
		}
		value, ok := secrets.ParseSecret(name)
		if !ok {
			return secrets.Value{}, dserrors.UserError{
				Message:    fmt.Sprintf("no secret file at %s", name),
				Suggestion: "Check the path, or run 'containerkit secrets scan' to see what was loaded",
			}
		}
		return value, nil

	case "keyring":
		return secrets.NewKeyringSource(service).Fetch(name)

	case "aws":
		src, err := secrets.NewAWSSource(ctx, region, endpoint, "", "")
		if err != nil {
			return secrets.Value{}, err
		}
		return src.Fetch(ctx, name)

	case "gcp":
		if saKeyPath != "" {
			if sa, ok := secrets.ParseSecret(saKeyPath); ok {
				if result, err := secrets.ValidateServiceAccount(sa); err == nil && !result.Valid {
					return secrets.Value{}, dserrors.UserError{
						Message:    fmt.Sprintf("%s does not look like a service account key", saKeyPath),
						Details:    strings.Join(result.Errors, "; "),
						Suggestion: "Check that the right secret is mounted at this path",
					}
				}
			}
		}
		src, err := secrets.NewGCPSource(ctx, projectID, saKeyPath)
		if err != nil {
			return secrets.Value{}, err
		}
		defer src.Close()
		return src.Fetch(ctx, name)
	}

	return secrets.Value{}, dserrors.UserError{
		Message:    fmt.Sprintf("unknown secret source %q", source),
		Suggestion: "Use one of: file, keyring, aws, gcp",
	}
}

func printSecret(cmd *cobra.Command, value secrets.Value, field string) error {
	out := cmd.OutOrStdout()

	if field != "" {
		v := value.Field(field)
		if v == "" {
			return dserrors.UserError{
				Message:    fmt.Sprintf("secret has no field %q", field),
				Suggestion: "Omit --field to print the whole secret",
			}
		}
		fmt.Fprintln(out, v)
		return nil
	}

	if value.Kind == secrets.KindStructured {
		data, err := json.MarshalIndent(value.Fields, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, value.Opaque)
	return nil
}
