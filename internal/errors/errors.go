package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StorageError enhances object-storage errors with context
func StorageError(operation, uri string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("storage error during %s of %s", operation, uri),
		Suggestion: storageSuggestion(err),
		Err:        err,
	}
}

func storageSuggestion(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "NoSuchBucket") {
		return "Verify the bucket name and that it exists in the configured region"
	}
	if strings.Contains(errStr, "NoSuchKey") || strings.Contains(errStr, "NotFound") {
		return "Verify the object key. List objects with: 'aws s3 ls s3://<bucket>/<prefix>'"
	}
	if strings.Contains(errStr, "AccessDenied") {
		return "Check IAM permissions for s3:GetObject / s3:PutObject on this bucket"
	}
	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
		return "Configure credentials: 'aws configure', AWS_PROFILE, or a mounted secret file"
	}
	if strings.Contains(errStr, "ExpiredToken") {
		return "The session token has expired. Refresh your credentials and retry"
	}
	return genericSuggestion(errStr)
}

// WarehouseError enhances warehouse query/load errors with context
func WarehouseError(driver, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s warehouse error during %s", driver, operation),
		Suggestion: warehouseSuggestion(driver, err),
		Err:        err,
	}
}

func warehouseSuggestion(driver string, err error) string {
	errStr := err.Error()

	switch driver {
	case "postgres":
		if strings.Contains(errStr, "password authentication failed") {
			return "Check the warehouse DSN credentials in your secret file"
		}
		if strings.Contains(errStr, "does not exist") {
			return "Verify the database and table names in the DSN and load target"
		}
	case "mysql":
		if strings.Contains(errStr, "Access denied") {
			return "Check the warehouse DSN credentials in your secret file"
		}
		if strings.Contains(errStr, "Unknown database") {
			return "Verify the database name in the DSN"
		}
	}
	return genericSuggestion(errStr)
}

// SecretError wraps failures while fetching from a remote secret source
func SecretError(source, name string, err error) error {
	suggestion := ""
	errStr := err.Error()

	switch source {
	case "aws":
		if strings.Contains(errStr, "ResourceNotFoundException") {
			suggestion = "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
		} else if strings.Contains(errStr, "AccessDenied") {
			suggestion = "Check IAM permissions for secretsmanager:GetSecretValue"
		}
	case "gcp":
		if strings.Contains(errStr, "NotFound") {
			suggestion = "Verify the secret name and project. List secrets with: 'gcloud secrets list'"
		} else if strings.Contains(errStr, "PermissionDenied") {
			suggestion = "Grant roles/secretmanager.secretAccessor to the service account"
		}
	case "keyring":
		if strings.Contains(errStr, "not found") {
			suggestion = "Store the secret first: the OS keyring has no entry under this service/account"
		}
	}
	if suggestion == "" {
		suggestion = genericSuggestion(errStr)
	}

	return UserError{
		Message:    fmt.Sprintf("%s secret source error for '%s'", source, name),
		Suggestion: suggestion,
		Err:        err,
	}
}

func genericSuggestion(errStr string) string {
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and endpoint configuration"
	}
	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
		"slowdown",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
