package config

import (
	"sort"
	"strings"
)

// normalizer provides type-safe string-to-enum normalization with a default
// fallback for unrecognized values.
type normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
	validKeys    []string // cached for error messages
}

func newNormalizer[T comparable](values map[string]T, defaultValue T) *normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := strings.ToLower(strings.TrimSpace(k))
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)
	return &normalizer[T]{validValues: normalized, defaultValue: defaultValue, validKeys: validKeys}
}

// Normalize converts a raw string to the enum type, falling back to the
// default for unrecognized input.
func (n *normalizer[T]) Normalize(raw string) T {
	if value, exists := n.validValues[strings.ToLower(strings.TrimSpace(raw))]; exists {
		return value
	}
	return n.defaultValue
}
