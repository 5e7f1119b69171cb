package secrets

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
)

// Locations maps a logical credential key (the module that consumes it)
// to the file path where the deployment mounts it. It is built once at
// startup from the module defaults plus any CLI override and passed to
// whatever needs it; there is no package-level registry.
type Locations map[string]string

// Well-known credential keys.
const (
	KeyObjectStore = "S3"  // object storage credentials
	KeyWarehouse   = "WH"  // warehouse DSN / credentials
	KeyGCP         = "GCP" // GCP service account key (secret manager source)
)

// DefaultLocations returns the standard secret paths under the vault
// mount for every module in the toolkit.
func DefaultLocations() Locations {
	return Locations{
		KeyObjectStore: path.Join(DefaultSecretFolder, "aws-credentials.json"),
		KeyWarehouse:   path.Join(DefaultSecretFolder, "warehouse-credentials.json"),
		KeyGCP:         path.Join(DefaultSecretFolder, "gcp-sa.json"),
	}
}

// MergeJSON overlays locations parsed from a JSON object, as supplied on
// the command line: {"S3": "/run/secrets/aws.json", ...}.
func (l Locations) MergeJSON(raw string) error {
	if raw == "" {
		return nil
	}
	var overrides map[string]string
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return fmt.Errorf("invalid secret locations JSON: %w", err)
	}
	for key, p := range overrides {
		l[key] = p
	}
	return nil
}

// Keys lists the registered credential keys in stable order.
func (l Locations) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
