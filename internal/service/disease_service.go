package service

import (
	"fmt"
	"strings"

	"plantscan-service/internal/domain/scan"
)

type DiseaseInfo struct {
	Key         string        `json:"key"`
	DisplayName string        `json:"display_name"`
	Severity    scan.Severity `json:"severity"`
	Remedies    []string      `json:"remedies"`
}

// ListDiseases returns every knowledge base entry sorted by key.
func (s *ScanService) ListDiseases() []DiseaseInfo {
	kb := s.analyzer.Matcher().KnowledgeBase()

	result := make([]DiseaseInfo, 0, kb.Len())
	for _, key := range kb.Keys() {
		entry, _ := kb.Get(key)
		result = append(result, toDiseaseInfo(key, entry))
	}
	return result
}

// GetDisease looks an entry up by key. Keys that differ from a stored one
// only in case, spacing or delimiters still resolve; token overlap does not.
func (s *ScanService) GetDisease(key string) (*DiseaseInfo, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: disease key is required", ErrInvalidInput)
	}

	m := s.analyzer.Matcher()
	if entry, ok := m.KnowledgeBase().Get(key); ok {
		info := toDiseaseInfo(key, entry)
		return &info, nil
	}

	match := m.Match(key)
	if !match.Matched() || (match.Confidence != scan.MatchExact && match.Confidence != scan.MatchVariant) {
		return nil, fmt.Errorf("%w: disease %q", ErrNotFound, key)
	}
	entry, ok := m.KnowledgeBase().Get(match.Key)
	if !ok {
		return nil, fmt.Errorf("%w: disease %q", ErrNotFound, key)
	}

	info := toDiseaseInfo(match.Key, entry)
	return &info, nil
}

func toDiseaseInfo(key string, e scan.KnowledgeBaseEntry) DiseaseInfo {
	return DiseaseInfo{
		Key:         key,
		DisplayName: e.DisplayName,
		Severity:    e.Severity,
		Remedies:    e.Remedies,
	}
}
