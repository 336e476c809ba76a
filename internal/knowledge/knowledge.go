package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"plantscan-service/internal/domain/scan"
)

var ErrInvalidEntry = errors.New("invalid knowledge base entry")

// KnowledgeBase is the read-only disease dictionary. It is safe for
// concurrent use because nothing mutates it after construction.
type KnowledgeBase struct {
	entries map[string]scan.KnowledgeBaseEntry
	keys    []string
}

type fileEntry struct {
	DisplayName string   `json:"display_name" toml:"display_name"`
	Severity    string   `json:"severity" toml:"severity"`
	Remedies    []string `json:"remedies" toml:"remedies"`
}

// Empty returns a knowledge base with no entries. Every match against it
// falls back.
func Empty() *KnowledgeBase {
	return &KnowledgeBase{entries: map[string]scan.KnowledgeBaseEntry{}}
}

// New builds a knowledge base from already typed entries. Entries missing a
// display name, severity or remedies are left out and reported in the
// returned error; the knowledge base is usable either way.
func New(entries map[string]scan.KnowledgeBaseEntry) (*KnowledgeBase, error) {
	kb := Empty()
	var errs []error

	for key, e := range entries {
		if err := validate(key, e); err != nil {
			errs = append(errs, err)
			continue
		}
		e.Remedies = slices.Clone(e.Remedies)
		kb.entries[key] = e
		kb.keys = append(kb.keys, key)
	}
	sort.Strings(kb.keys)

	return kb, errors.Join(errs...)
}

func validate(key string, e scan.KnowledgeBaseEntry) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	case strings.TrimSpace(e.DisplayName) == "":
		return fmt.Errorf("%w: %q: display_name is required", ErrInvalidEntry, key)
	case len(e.Remedies) == 0:
		return fmt.Errorf("%w: %q: remedies are required", ErrInvalidEntry, key)
	}
	if _, err := scan.ParseSeverity(string(e.Severity)); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidEntry, key, err)
	}
	return nil
}

// Load reads a JSON or TOML (by extension) knowledge base file.
func Load(path string) (*KnowledgeBase, error) {
	raw := map[string]fileEntry{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode knowledge base: %w", err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read knowledge base: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode knowledge base: %w", err)
		}
	}

	entries := make(map[string]scan.KnowledgeBaseEntry, len(raw))
	var errs []error
	for key, fe := range raw {
		sev, err := scan.ParseSeverity(fe.Severity)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidEntry, key, err))
			continue
		}
		entries[key] = scan.KnowledgeBaseEntry{
			DisplayName: fe.DisplayName,
			Severity:    sev,
			Remedies:    fe.Remedies,
		}
	}

	kb, err := New(entries)
	return kb, errors.Join(append(errs, err)...)
}

// LoadOrEmpty never fails: an unreadable file yields an empty knowledge base
// and rejected entries are skipped. Problems are logged.
func LoadOrEmpty(path string, log zerolog.Logger) *KnowledgeBase {
	if path == "" {
		log.Warn().Msg("knowledge base path is not set, diagnoses will use fallbacks")
		return Empty()
	}

	kb, err := Load(path)
	if kb == nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to load knowledge base, using empty one")
		return Empty()
	}
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("some knowledge base entries were rejected")
	}

	log.Info().Str("path", path).Int("entries", kb.Len()).Msg("knowledge base loaded")
	return kb
}

// Get returns the entry for an exact key.
func (kb *KnowledgeBase) Get(key string) (scan.KnowledgeBaseEntry, bool) {
	e, ok := kb.entries[key]
	if !ok {
		return scan.KnowledgeBaseEntry{}, false
	}
	e.Remedies = slices.Clone(e.Remedies)
	return e, true
}

func (kb *KnowledgeBase) Has(key string) bool {
	_, ok := kb.entries[key]
	return ok
}

// Keys returns all keys in sorted order.
func (kb *KnowledgeBase) Keys() []string {
	return slices.Clone(kb.keys)
}

func (kb *KnowledgeBase) Len() int {
	return len(kb.keys)
}
