package secrets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/internal/metrics"
	"github.com/systmms/containerkit/internal/secure"
	"github.com/systmms/containerkit/pkg/redact"
)

// Store holds every secret discovered for the lifetime of the process.
// Each successfully read file becomes one entry keyed by its source path;
// re-processing a path replaces its entry. Every loaded value is folded
// into the attached redaction vocabulary, and the raw file bytes are kept
// in an encrypted in-memory buffer rather than a plain string.
type Store struct {
	mu      sync.Mutex
	vocab   *redact.Vocabulary
	logger  *logging.Logger
	entries map[string]Value
	raws    map[string]*secure.Buffer
}

// NewStore creates a store feeding vocab. A nil vocab uses the
// process-wide default; a nil logger gets a quiet default.
func NewStore(vocab *redact.Vocabulary, logger *logging.Logger) *Store {
	if vocab == nil {
		vocab = redact.Default
	}
	if logger == nil {
		logger = logging.New(false, true)
	}
	return &Store{
		vocab:   vocab,
		logger:  logger,
		entries: make(map[string]Value),
		raws:    make(map[string]*secure.Buffer),
	}
}

// ProcessFolder loads every regular file under folder (recursively). A
// missing folder is the normal case outside the production container, so
// it logs at info level and returns without error. Individual unreadable
// or malformed files are logged and skipped or downgraded to opaque
// values; they never abort the scan.
func (s *Store) ProcessFolder(folder string) {
	if _, err := os.Stat(folder); err != nil {
		s.logger.Info("No secret files found in %s. This is normal when running locally.", folder)
		return
	}

	var files []string
	walkErr := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		s.logger.Warn("secret folder scan ended early: %v", walkErr)
	}

	s.logger.Info("Found %d secret files in %s", len(files), folder)
	for _, file := range files {
		s.processFile(file)
	}
}

func (s *Store) processFile(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("could not read secret file %s: %v", path, err)
		return
	}

	value, parseErr := Parse(content)
	if parseErr != nil {
		s.logger.Warn("%s is not a properly formatted json file: %v", path, parseErr)
	}
	if value.IsZero() {
		return
	}

	s.Put(path, value, content)
	metrics.RecordSecretLoaded("folder")
}

// Put records a secret under its source path, replacing any previous
// entry for that path, and registers its values for redaction. The raw
// bytes, when provided, are moved into protected memory.
func (s *Store) Put(path string, value Value, raw []byte) {
	s.mu.Lock()
	s.entries[path] = value
	if raw != nil {
		if old, ok := s.raws[path]; ok {
			old.Destroy()
		}
		s.raws[path] = secure.NewBuffer(raw)
	}
	s.mu.Unlock()

	s.vocab.Add(value.Words()...)
}

// Lookup returns the parsed value loaded from path, if any.
func (s *Store) Lookup(path string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[path]
	return v, ok
}

// Paths lists the source paths of all loaded entries, sorted.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Raw opens the protected raw bytes for a loaded path. The returned
// buffer stays owned by the store: callers Destroy the LockedBuffer
// they Open from it, never the buffer itself.
func (s *Store) Raw(path string) (*secure.Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.raws[path]
	return b, ok
}

// ParseSecret reads and parses a single secret file. A missing or
// unreadable file yields ok=false rather than an error so callers can
// fall through to the next candidate location.
func ParseSecret(path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Value{}, false
	}
	value, _ := Parse(content)
	if value.IsZero() {
		return Value{}, false
	}
	return value, true
}

// ParseSecretWithFallback resolves a secret through the standard chain:
// the explicit primary path, then the registered location for key, then
// the final fallback file. The first readable candidate wins.
func ParseSecretWithFallback(primary string, key string, locations Locations, fallbackFile string) (Value, bool) {
	if v, ok := ParseSecret(primary); ok {
		return v, true
	}
	if key != "" && locations != nil {
		if v, ok := ParseSecret(locations[key]); ok {
			return v, true
		}
	}
	return ParseSecret(fallbackFile)
}
