// Package kb holds the curated knowledge base of quick-fix solutions.
// Entries live in an ordered YAML file so lookups are deterministic:
// the first entry (declaration order) with a keyword hit always wins.
package kb

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed kb.yaml
var embeddedKB []byte

// Entry is a single curated solution.
type Entry struct {
	Key      string   `yaml:"key"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Solution string   `yaml:"solution"`
}

// KnowledgeBase is an ordered, read-only set of entries. It is safe for
// concurrent use once constructed.
type KnowledgeBase struct {
	entries []Entry
}

var (
	defaultOnce sync.Once
	defaultKB   *KnowledgeBase
	defaultErr  error
)

// Default returns the knowledge base parsed from the embedded kb.yaml.
func Default() (*KnowledgeBase, error) {
	defaultOnce.Do(func() {
		defaultKB, defaultErr = Parse(embeddedKB)
	})
	return defaultKB, defaultErr
}

// LoadFile reads a knowledge base from an operator-supplied YAML file.
func LoadFile(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return Parse(data)
}

// Parse builds a KnowledgeBase from YAML. Entry order is preserved.
func Parse(data []byte) (*KnowledgeBase, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("knowledge base entry %d: missing key", i)
		}
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("knowledge base entry %q: no keywords", e.Key)
		}
		if strings.TrimSpace(e.Solution) == "" {
			return nil, fmt.Errorf("knowledge base entry %q: empty solution", e.Key)
		}
	}
	return &KnowledgeBase{entries: entries}, nil
}

// Lookup returns the first entry whose keyword set intersects the question
// (case-insensitive substring match). Ties between entries sharing a
// keyword are broken by declaration order; callers rely on this for
// reproducible answers, so do not reorder entries casually.
func (k *KnowledgeBase) Lookup(question string) (Entry, bool) {
	q := strings.ToLower(question)
	for _, e := range k.entries {
		for _, kw := range e.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Len reports the number of entries.
func (k *KnowledgeBase) Len() int { return len(k.entries) }

// Entries returns a copy of the entry list in declaration order.
func (k *KnowledgeBase) Entries() []Entry {
	out := make([]Entry, len(k.entries))
	copy(out, k.entries)
	return out
}
