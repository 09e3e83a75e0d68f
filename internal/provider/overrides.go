package provider

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed overrides.yaml
var defaultOverrides []byte

// Overrides is the hand-maintained exception list consulted before any catalog
// search. Keys are exact, case-sensitive input names. It is read-only after
// construction.
type Overrides struct {
	entries map[string]ArtistIdentification
}

type overrideFile struct {
	Overrides map[string]overrideEntry `yaml:"overrides"`
}

type overrideEntry struct {
	CatalogID   string `yaml:"catalog_id"`
	DisplayName string `yaml:"display_name"`
	ImageURL    string `yaml:"image_url"`
}

// DefaultOverrides returns the table compiled into the binary.
func DefaultOverrides() (*Overrides, error) {
	return ParseOverrides(defaultOverrides)
}

// LoadOverrides reads the embedded table and merges the file at path on top of
// it. An empty path yields the embedded table only.
func LoadOverrides(path string) (*Overrides, error) {
	o, err := DefaultOverrides()
	if err != nil {
		return nil, fmt.Errorf("parsing embedded overrides: %w", err)
	}
	if path == "" {
		return o, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading overrides file: %w", err)
	}
	extra, err := ParseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("parsing overrides file %s: %w", path, err)
	}
	for k, v := range extra.entries {
		o.entries[k] = v
	}
	return o, nil
}

// ParseOverrides decodes a YAML override table.
func ParseOverrides(data []byte) (*Overrides, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	o := &Overrides{entries: make(map[string]ArtistIdentification, len(f.Overrides))}
	for name, e := range f.Overrides {
		if name == "" {
			return nil, fmt.Errorf("override with empty name")
		}
		display := e.DisplayName
		if display == "" {
			display = name
		}
		o.entries[name] = ArtistIdentification{
			CatalogID:    e.CatalogID,
			DisplayName:  display,
			SearchName:   name,
			ImageURL:     e.ImageURL,
			FromOverride: true,
		}
	}
	return o, nil
}

// NewOverrides builds a table from already resolved records keyed by input name.
func NewOverrides(entries map[string]ArtistIdentification) *Overrides {
	o := &Overrides{entries: make(map[string]ArtistIdentification, len(entries))}
	for name, id := range entries {
		id.SearchName = name
		id.FromOverride = true
		o.entries[name] = id
	}
	return o
}

// Lookup returns the stored record for name, if any.
func (o *Overrides) Lookup(name string) (ArtistIdentification, bool) {
	if o == nil {
		return ArtistIdentification{}, false
	}
	id, ok := o.entries[name]
	return id, ok
}

// Len returns the number of entries.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Names returns all override keys sorted.
func (o *Overrides) Names() []string {
	if o == nil {
		return nil
	}
	names := make([]string, 0, len(o.entries))
	for n := range o.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
