package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/internal/metrics"
)

// SecretsManagerAPI is the slice of the AWS Secrets Manager client the
// source needs. It exists so tests can inject a mock.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSource fetches secrets from AWS Secrets Manager, for deployments
// that don't use a vault sidecar mount.
type AWSSource struct {
	client SecretsManagerAPI
	region string
}

// AWSOption is a functional option for configuring the source
type AWSOption func(*AWSSource)

// WithSecretsManagerClient sets a custom client (for testing)
func WithSecretsManagerClient(client SecretsManagerAPI) AWSOption {
	return func(s *AWSSource) {
		s.client = client
	}
}

// NewAWSSource creates a Secrets Manager source. endpoint and static
// credentials are optional and intended for LocalStack-style testing.
func NewAWSSource(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string, opts ...AWSOption) (*AWSSource, error) {
	if region == "" {
		region = "us-east-1"
	}

	s := &AWSSource{region: region}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		configOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
		if accessKeyID != "" && secretAccessKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
			))
		}

		cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if endpoint != "" {
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		s.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// Name returns the source name for logging and metrics.
func (s *AWSSource) Name() string { return "aws" }

// Fetch retrieves one secret by name and parses it with the same
// content sniff applied to mounted files.
func (s *AWSSource) Fetch(ctx context.Context, name string) (Value, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return Value{}, dserrors.SecretError("aws", name, err)
	}

	var payload []byte
	switch {
	case out.SecretString != nil:
		payload = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		payload = out.SecretBinary
	default:
		return Value{}, dserrors.SecretError("aws", name, fmt.Errorf("secret has no value"))
	}

	value, parseErr := Parse(payload)
	if parseErr != nil {
		// Retain the raw text as an opaque secret; the caller decides
		// whether a malformed structured credential is fatal.
		return value, nil
	}
	metrics.RecordSecretLoaded("aws")
	return value, nil
}
