package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	dserrors "github.com/systmms/containerkit/internal/errors"
)

func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := dserrors.UserError{
		Message:    "Secret folder missing",
		Details:    "/vault/secrets does not exist",
		Suggestion: "Mount the secrets volume or pass --secret-folder",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Secret folder missing")
	assert.Contains(t, msg, "Details: /vault/secrets does not exist")
	assert.Contains(t, msg, "Try: Mount the secrets volume")
}

func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := stderrors.New("root cause")
	err := dserrors.UserError{Message: "outer", Err: inner}

	assert.ErrorIs(t, error(err), inner)
}

func TestConfigErrorIncludesFieldAndValue(t *testing.T) {
	t.Parallel()

	err := dserrors.ConfigError{
		Field:      "warehouse.driver",
		Value:      "oracle",
		Message:    "unsupported driver",
		Suggestion: "Use 'postgres' or 'mysql'",
	}

	msg := err.Error()
	assert.Contains(t, msg, "warehouse.driver")
	assert.Contains(t, msg, "oracle")
	assert.Contains(t, msg, "unsupported driver")
}

func TestStorageErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantHas string
	}{
		{"missing bucket", stderrors.New("api error NoSuchBucket"), "bucket name"},
		{"missing key", stderrors.New("api error NoSuchKey"), "object key"},
		{"denied", stderrors.New("api error AccessDenied"), "IAM permissions"},
		{"timeout", stderrors.New("request timeout"), "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dserrors.StorageError("download", "s3://b/k", tt.err)
			assert.Contains(t, err.Error(), tt.wantHas)
		})
	}
}

func TestWarehouseErrorSuggestions(t *testing.T) {
	t.Parallel()

	err := dserrors.WarehouseError("postgres", "load",
		stderrors.New("pq: password authentication failed for user \"etl\""))
	assert.Contains(t, err.Error(), "DSN credentials")

	err = dserrors.WarehouseError("mysql", "query",
		stderrors.New("Error 1045: Access denied for user"))
	assert.Contains(t, err.Error(), "DSN credentials")
}

func TestSecretErrorSuggestions(t *testing.T) {
	t.Parallel()

	err := dserrors.SecretError("aws", "db-creds",
		stderrors.New("ResourceNotFoundException: Secrets Manager can't find the specified secret"))
	assert.Contains(t, err.Error(), "secretsmanager list-secrets")

	err = dserrors.SecretError("gcp", "db-creds",
		stderrors.New("rpc error: code = NotFound desc = secret not found"))
	assert.Contains(t, err.Error(), "gcloud secrets list")
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, dserrors.IsRetryable(stderrors.New("SlowDown: reduce request rate")))
	assert.True(t, dserrors.IsRetryable(stderrors.New("connection reset by peer")))
	assert.False(t, dserrors.IsRetryable(stderrors.New("NoSuchKey")))
	assert.False(t, dserrors.IsRetryable(nil))
}
