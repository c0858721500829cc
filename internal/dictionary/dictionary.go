// Package dictionary loads the operator-maintained data dictionary: business
// descriptions, category overrides, and column masks layered on top of the
// extracted schema.
package dictionary

import (
	"fmt"
	"os"

	"github.com/warequery/warequery/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Dictionary maps table names to operator-supplied context.
type Dictionary struct {
	Tables map[string]TableEntry `yaml:"tables"`
}

// TableEntry annotates one table. Category, when set, overrides the keyword
// classifier; Description only fills in when the database comment is empty,
// so COMMENT ON always wins.
type TableEntry struct {
	Description string                     `yaml:"description"`
	Category    string                     `yaml:"category,omitempty"`
	Masks       map[string]domain.MaskType `yaml:"masks,omitempty"`
}

// Load reads and validates a dictionary YAML file.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary file: %w", err)
	}

	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing dictionary YAML: %w", err)
	}
	if err := validate(&d); err != nil {
		return nil, fmt.Errorf("validating dictionary: %w", err)
	}
	return &d, nil
}

func validate(d *Dictionary) error {
	for table, entry := range d.Tables {
		if table == "" {
			return fmt.Errorf("tables contains an empty key")
		}
		if entry.Category != "" {
			if _, ok := domain.ParseCategory(entry.Category); !ok {
				return fmt.Errorf("tables[%q].category: unknown category %q", table, entry.Category)
			}
		}
		for col, mask := range entry.Masks {
			if col == "" {
				return fmt.Errorf("tables[%q].masks contains an empty key", table)
			}
			if !mask.Valid() {
				return fmt.Errorf("tables[%q].masks[%q]: invalid mask %q (allowed: redact, hash, null)", table, col, mask)
			}
		}
	}
	return nil
}

// Merge applies the dictionary entry for a freshly extracted table.
func (d *Dictionary) Merge(t *domain.TableSchema) {
	if d == nil {
		return
	}
	entry, ok := d.Tables[t.Name]
	if !ok {
		return
	}
	if t.Comment == "" && entry.Description != "" {
		t.Comment = entry.Description
	}
	if entry.Category != "" {
		if cat, ok := domain.ParseCategory(entry.Category); ok {
			t.Category = cat
		}
	}
}

// ColumnMasks flattens every table's masks into one column-name map for the
// result masking pass.
func (d *Dictionary) ColumnMasks() map[string]domain.MaskType {
	if d == nil {
		return nil
	}
	masks := make(map[string]domain.MaskType)
	for _, entry := range d.Tables {
		for col, mask := range entry.Masks {
			if mask != "" {
				masks[col] = mask
			}
		}
	}
	if len(masks) == 0 {
		return nil
	}
	return masks
}
