package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/internal/metrics"
)

// ErrKeyringItemNotFound is returned when the OS keyring has no entry
// for the requested service/account pair.
var ErrKeyringItemNotFound = errors.New("keyring item not found")

// KeyringSource reads secrets from the OS keyring (Secret Service on
// Linux, Keychain on macOS). Intended for local development, where no
// vault mount exists but developers still want their tokens masked.
type KeyringSource struct {
	service string
}

// NewKeyringSource creates a keyring source scoped to one service name.
func NewKeyringSource(service string) *KeyringSource {
	if service == "" {
		service = "containerkit"
	}
	return &KeyringSource{service: service}
}

// Name returns the source name for logging and metrics.
func (s *KeyringSource) Name() string { return "keyring" }

// Fetch retrieves one account's secret from the keyring.
func (s *KeyringSource) Fetch(account string) (Value, error) {
	raw, err := keyring.Get(s.service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Value{}, ErrKeyringItemNotFound
		}
		return Value{}, dserrors.SecretError("keyring", account, err)
	}

	value, parseErr := Parse([]byte(raw))
	if parseErr != nil {
		return value, nil
	}
	metrics.RecordSecretLoaded("keyring")
	return value, nil
}
