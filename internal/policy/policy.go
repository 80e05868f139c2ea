// Package policy holds the per-purpose budget configuration that bounds
// what a request may pull into its context: how many mentions, how much
// text per entity, and how much text in total. The engine treats the
// table as read-only input and hard-fails when a purpose is missing,
// since silently substituting a default would break the cost-bounding
// guarantee.
package policy

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPurpose is returned when no budget is registered for a
// purpose. This is a deployment bug, not a runtime condition to degrade
// from; callers must propagate it.
var ErrUnknownPurpose = errors.New("no budget policy registered for purpose")

// Budget bounds one request purpose.
type Budget struct {
	// MaxMentions caps how many mentions enter resolution.
	MaxMentions int `yaml:"max_mentions"`

	// MaxTextPerEntity caps every text field of a snapshot, in runes.
	MaxTextPerEntity int `yaml:"max_text_per_entity"`

	// MaxTotalText caps the combined text size across all snapshots.
	// Once exceeded, remaining entities are dropped whole rather than
	// truncated further.
	MaxTotalText int `yaml:"max_total_text"`
}

// Validate checks the budget is internally consistent.
func (b Budget) Validate() error {
	if b.MaxMentions < 1 {
		return fmt.Errorf("max_mentions must be >= 1, got %d", b.MaxMentions)
	}
	if b.MaxTextPerEntity < 8 {
		return fmt.Errorf("max_text_per_entity must be >= 8, got %d", b.MaxTextPerEntity)
	}
	if b.MaxTotalText < b.MaxTextPerEntity {
		return fmt.Errorf("max_total_text (%d) must be >= max_text_per_entity (%d)",
			b.MaxTotalText, b.MaxTextPerEntity)
	}
	return nil
}

// Table maps request purposes to budgets. Lookups are safe for
// concurrent use; the whole map is swapped atomically on reload.
type Table struct {
	mu       sync.RWMutex
	purposes map[string]Budget
}

// NewTable creates a table from an already-validated purpose map.
func NewTable(purposes map[string]Budget) (*Table, error) {
	if err := validatePurposes(purposes); err != nil {
		return nil, err
	}
	return &Table{purposes: clonePurposes(purposes)}, nil
}

// tableFile is the YAML shape of a policy file.
type tableFile struct {
	Purposes map[string]Budget `yaml:"purposes"`
}

// ParseTable builds a table from YAML bytes.
func ParseTable(data []byte) (*Table, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing policy table: %w", err)
	}
	return NewTable(tf.Purposes)
}

// LoadTable reads and parses a policy file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy table %s: %w", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("policy table %s: %w", path, err)
	}
	return t, nil
}

// Lookup returns the budget for a purpose, or ErrUnknownPurpose.
func (t *Table) Lookup(purpose string) (Budget, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.purposes[purpose]
	if !ok {
		return Budget{}, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}
	return b, nil
}

// Purposes returns the registered purpose names, sorted.
func (t *Table) Purposes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.purposes))
	for name := range t.purposes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Replace swaps in a new purpose map after validating it. On validation
// failure the previous table stays in effect.
func (t *Table) Replace(purposes map[string]Budget) error {
	if err := validatePurposes(purposes); err != nil {
		return err
	}
	t.mu.Lock()
	t.purposes = clonePurposes(purposes)
	t.mu.Unlock()
	return nil
}

func validatePurposes(purposes map[string]Budget) error {
	if len(purposes) == 0 {
		return fmt.Errorf("policy table defines no purposes")
	}
	for name, b := range purposes {
		if name == "" {
			return fmt.Errorf("policy table contains an empty purpose name")
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("purpose %q: %w", name, err)
		}
	}
	return nil
}

func clonePurposes(purposes map[string]Budget) map[string]Budget {
	cp := make(map[string]Budget, len(purposes))
	for name, b := range purposes {
		cp[name] = b
	}
	return cp
}
