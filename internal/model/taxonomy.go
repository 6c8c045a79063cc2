package model

import (
	"fmt"
	"strings"
)

// TaxonomyMode controls whether the AI may invent new categories.
type TaxonomyMode string

const (
	// ModeStrict maps every suggestion onto the existing category set.
	ModeStrict TaxonomyMode = "strict"
	// ModeFlexible lets the AI mint new categories within bounds.
	ModeFlexible TaxonomyMode = "flexible"
)

// TaxonomyConfig governs how AI suggestions become classification paths.
// It is owned by the host application and passed explicitly; there is
// no ambient global config.
type TaxonomyConfig struct {
	Mode                TaxonomyMode `json:"mode"`
	CategoryLanguage    string       `json:"categoryLanguage,omitempty"`
	IgnorePatterns      []string     `json:"ignorePatterns,omitempty"`
	CategoryVocabulary  []string     `json:"categoryVocabulary,omitempty"`
	MaxDepth            int          `json:"maxDepth"`
	MaxChildren         int          `json:"maxChildren"`
	TargetCategoryCount int          `json:"targetCategoryCount,omitempty"`
	ForceDeepAnalysis   bool         `json:"forceDeepAnalysis,omitempty"`
}

// DefaultTaxonomyConfig returns a usable flexible-mode configuration.
func DefaultTaxonomyConfig() TaxonomyConfig {
	return TaxonomyConfig{
		Mode:        ModeFlexible,
		MaxDepth:    3,
		MaxChildren: 12,
	}
}

// Validate checks structural bounds.
func (c *TaxonomyConfig) Validate() error {
	switch c.Mode {
	case ModeStrict, ModeFlexible:
	default:
		return fmt.Errorf("invalid taxonomy mode: %q", c.Mode)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("maxDepth must be >= 1, got %d", c.MaxDepth)
	}
	if c.MaxChildren < 1 {
		return fmt.Errorf("maxChildren must be >= 1, got %d", c.MaxChildren)
	}
	return nil
}

// CategoryNode is a node in the category tree. Path is always the
// slash-joined ancestor chain: node.Path == parent.Path + "/" + node.Name.
type CategoryNode struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Children []*CategoryNode `json:"children,omitempty"`
}

// ChildPath computes the path a child named name would have under n.
// A nil receiver acts as the root.
func (n *CategoryNode) ChildPath(name string) string {
	if n == nil || n.Path == "" {
		return name
	}
	return n.Path + "/" + name
}

// NormalizePath strips surrounding slashes and collapses empty segments.
func NormalizePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}
