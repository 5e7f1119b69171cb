package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/internal/metrics"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPSource fetches secrets from Google Cloud Secret Manager.
type GCPSource struct {
	client    *secretmanager.Client
	projectID string
}

// NewGCPSource creates a Secret Manager source. saKeyPath is optional;
// without it the client uses application default credentials.
func NewGCPSource(ctx context.Context, projectID, saKeyPath string) (*GCPSource, error) {
	if projectID == "" {
		return nil, dserrors.ConfigError{
			Field:      "project_id",
			Message:    "project_id is required for the GCP secret source",
			Suggestion: "Set project_id in config or the GOOGLE_CLOUD_PROJECT environment variable",
		}
	}

	var clientOpts []option.ClientOption
	if saKeyPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(saKeyPath))
	}

	client, err := secretmanager.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &GCPSource{client: client, projectID: projectID}, nil
}

// Name returns the source name for logging and metrics.
func (s *GCPSource) Name() string { return "gcp" }

// Close releases the underlying gRPC connection.
func (s *GCPSource) Close() error {
	return s.client.Close()
}

// Fetch retrieves the latest version of a secret by short name or full
// resource name.
func (s *GCPSource) Fetch(ctx context.Context, name string) (Value, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.resourceName(name),
	})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return Value{}, dserrors.SecretError("gcp", name, fmt.Errorf("NotFound: %s", st.Message()))
		}
		return Value{}, dserrors.SecretError("gcp", name, err)
	}

	value, parseErr := Parse(resp.GetPayload().GetData())
	if parseErr != nil {
		return value, nil
	}
	metrics.RecordSecretLoaded("gcp")
	return value, nil
}

// resourceName expands a short secret name into the full version path,
// leaving already-qualified names alone.
func (s *GCPSource) resourceName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		if strings.Contains(name, "/versions/") {
			return name
		}
		return name + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)
}
