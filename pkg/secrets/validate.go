package secrets

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// serviceAccountSchema captures the shape of a GCP-style service account
// key file, the most common structured credential mounted into our
// containers. Validation catches truncated or mis-mounted files before a
// task fails twenty minutes in with an opaque auth error.
const serviceAccountSchema = `{
  "type": "object",
  "required": ["type", "project_id", "private_key", "client_email"],
  "properties": {
    "type": {"type": "string", "enum": ["service_account"]},
    "project_id": {"type": "string", "minLength": 1},
    "private_key_id": {"type": "string"},
    "private_key": {"type": "string", "pattern": "^-----BEGIN"},
    "client_email": {"type": "string", "format": "email"},
    "client_id": {"type": "string"},
    "token_uri": {"type": "string"}
  }
}`

// ValidationResult reports the outcome of a credential shape check.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateServiceAccount checks a structured secret against the service
// account schema. Opaque values fail with a single explanatory error.
func ValidateServiceAccount(v Value) (*ValidationResult, error) {
	if v.Kind != KindStructured {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{"credential is an opaque string, not a service account object"},
		}, nil
	}

	document := make(map[string]any, len(v.Fields))
	for k, fv := range v.Fields {
		document[k] = fv
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(serviceAccountSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed to run: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, desc.String())
	}
	return out, nil
}
