package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/internal/metrics"
)

// envTagNames are the orchestration identifiers attached as object
// metadata on every upload, when present in the environment.
var envTagNames = []string{"DAG_ID", "RUN_ID", "NAMESPACE", "POD_NAME", "GITHUB_SHA"}

// S3API is the slice of the S3 client the store needs. It exists so
// tests can inject a mock.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client moves bytes and rows between object storage and the container.
type Client struct {
	api           S3API
	logger        *logging.Logger
	defaultFormat Format
}

// Option is a functional option for configuring the client
type Option func(*Client)

// WithS3Client sets a custom API client (for testing)
func WithS3Client(api S3API) Option {
	return func(c *Client) {
		c.api = api
	}
}

// WithLogger sets the logger used for transfer progress.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDefaultFormat sets the format used when an extension is unknown.
func WithDefaultFormat(format Format) Option {
	return func(c *Client) {
		c.defaultFormat = format
	}
}

// NewClient creates an S3-backed client. endpoint and static
// credentials are optional and intended for MinIO-style testing.
func NewClient(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string, opts ...Option) (*Client, error) {
	c := &Client{defaultFormat: FormatParquet, logger: logging.New(false, false)}
	for _, opt := range opts {
		opt(c)
	}

	if c.api == nil {
		configOpts := []func(*config.LoadOptions) error{config.WithDefaultRegion("us-east-1")}
		if region != "" {
			configOpts = append(configOpts, config.WithRegion(region))
		}
		if accessKeyID != "" && secretAccessKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
			))
		}

		cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*s3.Options)
		if endpoint != "" {
			clientOpts = append(clientOpts, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			})
		}
		c.api = s3.NewFromConfig(cfg, clientOpts...)
	}

	return c, nil
}

// Download fetches an object fully into memory.
func (c *Client) Download(ctx context.Context, rawURI string) ([]byte, error) {
	uri, err := ParseURI(rawURI)
	if err != nil {
		return nil, err
	}

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, dserrors.StorageError("download", rawURI, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, dserrors.StorageError("download", rawURI, err)
	}
	c.logger.Debug("Downloaded %d bytes from %s", len(data), rawURI)
	return data, nil
}

// Upload stores bytes as one object, tagging it with the orchestration
// identifiers found in the environment plus any extra metadata.
func (c *Client) Upload(ctx context.Context, rawURI string, data []byte, extra map[string]string) error {
	uri, err := ParseURI(rawURI)
	if err != nil {
		return err
	}

	metadata := envTags()
	for k, v := range extra {
		metadata[k] = v
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(uri.Bucket),
		Key:      aws.String(uri.Key),
		Body:     bytes.NewReader(data),
		Metadata: metadata,
	})
	if err != nil {
		return dserrors.StorageError("upload", rawURI, err)
	}
	c.logger.Debug("Uploaded %d bytes to %s", len(data), rawURI)
	return nil
}

// DownloadObject fetches an object and decodes it into rows. The
// format is inferred from the key's extension.
func (c *Client) DownloadObject(ctx context.Context, rawURI string) ([]map[string]any, Format, error) {
	data, err := c.Download(ctx, rawURI)
	if err != nil {
		return nil, "", err
	}

	format := InferFormat(rawURI, c.defaultFormat)
	rows, err := Decode(format, data)
	if err != nil {
		return nil, format, dserrors.StorageError("decode", rawURI, err)
	}
	metrics.RecordStorageTransfer("download", string(format))
	return rows, format, nil
}

// UploadObject encodes rows and stores them as one object. The format
// is inferred from the key's extension.
func (c *Client) UploadObject(ctx context.Context, rawURI string, rows []map[string]any, extra map[string]string) error {
	format := InferFormat(rawURI, c.defaultFormat)
	data, err := Encode(format, rows)
	if err != nil {
		return dserrors.StorageError("encode", rawURI, err)
	}
	if err := c.Upload(ctx, rawURI, data, extra); err != nil {
		return err
	}
	metrics.RecordStorageTransfer("upload", string(format))
	return nil
}

// DownloadToFiles fetches each URI into the matching local path.
func (c *Client) DownloadToFiles(ctx context.Context, rawURIs, localPaths []string) error {
	if len(rawURIs) != len(localPaths) {
		return dserrors.UserError{
			Message:    fmt.Sprintf("%d URIs but %d local paths", len(rawURIs), len(localPaths)),
			Suggestion: "Pass one local path per object URI",
		}
	}
	for i, rawURI := range rawURIs {
		data, err := c.Download(ctx, rawURI)
		if err != nil {
			return err
		}
		if err := os.WriteFile(localPaths[i], data, 0o644); err != nil {
			return dserrors.StorageError("download", rawURI, err)
		}
		metrics.RecordStorageTransfer("download", string(InferFormat(rawURI, FormatRaw)))
		c.logger.Info("Downloaded %s to %s", rawURI, localPaths[i])
	}
	return nil
}

// UploadFromFiles stores each local file at the matching URI.
func (c *Client) UploadFromFiles(ctx context.Context, localPaths, rawURIs []string) error {
	if len(localPaths) != len(rawURIs) {
		return dserrors.UserError{
			Message:    fmt.Sprintf("%d local paths but %d URIs", len(localPaths), len(rawURIs)),
			Suggestion: "Pass one object URI per local file",
		}
	}
	for i, localPath := range localPaths {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return dserrors.StorageError("upload", rawURIs[i], err)
		}
		if err := c.Upload(ctx, rawURIs[i], data, nil); err != nil {
			return err
		}
		metrics.RecordStorageTransfer("upload", string(InferFormat(rawURIs[i], FormatRaw)))
		c.logger.Info("Uploaded %s to %s", localPath, rawURIs[i])
	}
	return nil
}

func envTags() map[string]string {
	tags := make(map[string]string)
	for _, name := range envTagNames {
		if v := os.Getenv(name); v != "" {
			tags[name] = v
		}
	}
	return tags
}
