package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/containerkit/internal/cliargs"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/pkg/objectstore"
	"github.com/systmms/containerkit/pkg/secrets"
)

func NewStorageCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Move files between object storage and the container",
	}

	cmd.AddCommand(
		newStorageGetCommand(app),
		newStoragePutCommand(app),
	)
	return cmd
}

func newStorageGetCommand(app *App) *cobra.Command {
	var localFiles []string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Download objects to local files",
		Long: `Download one object per --input-filenames entry into the matching
--local-files path. A single --input-bucket-names entry is broadcast
across all filenames.

Example:
  containerkit storage get \
    --input-bucket-names data-lake \
    --input-paths raw/2026,raw/2026 \
    --input-filenames a.csv,b.csv \
    --local-files /tmp/a.csv,/tmp/b.csv`,
	}

	args := cliargs.Spec{
		InputFiles:      cliargs.Required,
		SecretLocations: cliargs.Optional,
		DefaultFileType: cliargs.Optional,
		IdentifyingTags: cliargs.Optional,
	}.Register(cmd)
	cmd.Flags().StringSliceVar(&localFiles, "local-files", nil, "Local paths to write, one per input filename")
	cmd.MarkFlagRequired("local-files")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := args.Finalize(); err != nil {
			return err
		}
		client, err := storageClient(cmd, app, args)
		if err != nil {
			return err
		}
		return client.DownloadToFiles(cmd.Context(), args.InputURIs(), localFiles)
	}
	return cmd
}

func newStoragePutCommand(app *App) *cobra.Command {
	var localFiles []string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Upload local files as objects",
		Long: `Upload one local file per --output-filenames entry. Uploaded objects
are tagged with the DAG_ID/RUN_ID/NAMESPACE/POD_NAME/GITHUB_SHA values
found in the environment or passed as identifying tags.`,
	}

	args := cliargs.Spec{
		OutputFiles:     cliargs.Required,
		SecretLocations: cliargs.Optional,
		DefaultFileType: cliargs.Optional,
		IdentifyingTags: cliargs.Optional,
	}.Register(cmd)
	cmd.Flags().StringSliceVar(&localFiles, "local-files", nil, "Local files to upload, one per output filename")
	cmd.MarkFlagRequired("local-files")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := args.Finalize(); err != nil {
			return err
		}
		client, err := storageClient(cmd, app, args)
		if err != nil {
			return err
		}
		return client.UploadFromFiles(cmd.Context(), localFiles, args.OutputURIs())
	}
	return cmd
}

// storageClient builds the object storage client, pulling static
// credentials from the registered S3 secret file when one is mounted.
func storageClient(cmd *cobra.Command, app *App, args *cliargs.Args) (*objectstore.Client, error) {
	var accessKeyID, secretAccessKey string
	if creds, ok := secrets.ParseSecretWithFallback(
		args.SecretLocations[secrets.KeyObjectStore], secrets.KeyObjectStore, args.SecretLocations, ""); ok {
		accessKeyID = creds.Field("access_key_id")
		secretAccessKey = creds.Field("secret_access_key")
		app.Vocab.Add(creds.Words()...)
	}

	opts := []objectstore.Option{objectstore.WithLogger(app.Logger)}
	if args.DefaultFileType != "" {
		opts = append(opts, objectstore.WithDefaultFormat(args.DefaultFileType))
	}

	client, err := objectstore.NewClient(cmd.Context(),
		app.Config.Storage.Region, app.Config.Storage.Endpoint,
		accessKeyID, secretAccessKey, opts...)
	if err != nil {
		return nil, dserrors.StorageError("configure", "s3", err)
	}
	return client, nil
}
