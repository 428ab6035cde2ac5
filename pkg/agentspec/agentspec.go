// Package agentspec loads agent behavior specifications from a content
// directory.
//
// Specs are authored as readable markdown documents with a handful of fixed
// section shapes (Role, Goals, Inputs, Outputs, Guardrails, Procedure,
// Examples, Failure Tags), so parsing is deliberate line-oriented scanning
// rather than a general markdown dependency.
//
// Absence is a valid state throughout: a missing document, or a missing
// directory altogether, yields a nil spec / empty name list, never an error.
// Not every deployment ships every agent.
package agentspec

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/agentgate/internal/sanitize"
)

// specExtension is the filename extension spec documents use.
const specExtension = ".md"

// AgentSpec is the parsed, immutable configuration of one agent role.
type AgentSpec struct {
	Name        string
	Role        string
	Goals       []string
	Inputs      map[string]string
	Outputs     map[string]string
	Guardrails  map[string]string
	Procedure   []string
	Examples    []Example
	FailureTags []string
}

// Example is one structured input/output sample from a spec's Examples
// section. Examples are advisory; a malformed block is dropped at parse
// time rather than failing the load.
type Example struct {
	Input  any
	Output any
}

// Loader resolves and caches agent specs under a single root directory.
// The root is injected at construction so tests can run multiple loaders
// against different roots; there is no process-global state.
//
// The cache is a memoization optimization, not a correctness requirement:
// concurrent first-access races re-parse the same document into equivalent
// values.
type Loader struct {
	root string

	mu    sync.RWMutex
	cache map[string]*AgentSpec
}

// NewLoader creates a loader rooted at dir. The directory does not have to
// exist; lookups against an absent root return absence, not errors.
func NewLoader(dir string) *Loader {
	return &Loader{
		root:  dir,
		cache: make(map[string]*AgentSpec),
	}
}

// Load returns the spec for name, or (nil, nil) when no document backs it.
// A name that cannot safely form a filename can never have a backing
// document, so it is absence too, never a path probe.
func (l *Loader) Load(name string) (*AgentSpec, error) {
	if sanitize.ValidateSpecName(name) != nil {
		return nil, nil
	}

	l.mu.RLock()
	cached, hit := l.cache[name]
	l.mu.RUnlock()
	if hit {
		return cached, nil
	}

	content, err := os.ReadFile(filepath.Join(l.root, name+specExtension))
	if err != nil {
		// Missing file and missing directory are both plain absence.
		return nil, nil
	}

	spec := parseSpec(name, string(content))

	l.mu.Lock()
	l.cache[name] = spec
	l.mu.Unlock()
	return spec, nil
}

// Names lists every loadable spec name, sorted, extension stripped.
// Files whose names Load would treat as absent are skipped, so every
// listed name round-trips through Load. An absent root yields an empty
// list.
func (l *Loader) Names() []string {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return []string{}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), specExtension) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), specExtension)
		if sanitize.ValidateSpecName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
