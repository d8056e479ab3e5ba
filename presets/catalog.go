// Package presets holds the static catalog of analysis prompt templates. The
// catalog is embedded at build time and read-only after startup; the only
// mutable prompt state (which preset is active, the user's custom text) lives
// on the session controller.
package presets

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CustomID is the distinguished preset that carries no template and signals
// "use the user-provided text instead".
const CustomID = "custom"

// DefaultID is the preset the editor starts on.
const DefaultID = "highlight"

// Preset is one named analysis instruction template.
type Preset struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Template    string `json:"-" yaml:"template"`
}

//go:embed presets.yaml
var rawCatalog []byte

var (
	catalog []Preset
	byID    map[string]Preset
)

func init() {
	var doc struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(rawCatalog, &doc); err != nil {
		panic(fmt.Sprintf("presets: embedded catalog is malformed: %v", err))
	}
	catalog = doc.Presets
	byID = make(map[string]Preset, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	if _, ok := byID[DefaultID]; !ok {
		panic("presets: catalog missing default preset")
	}
	if _, ok := byID[CustomID]; !ok {
		panic("presets: catalog missing custom preset")
	}
}

// Catalog returns the full preset table in declaration order.
func Catalog() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a preset by id.
func Lookup(id string) (Preset, bool) {
	p, ok := byID[id]
	return p, ok
}

// IsCustom reports whether the id names the custom preset.
func IsCustom(id string) bool {
	return id == CustomID
}

// Resolve produces the prompt to send with an analyze request: the user's
// text when the custom preset is active, otherwise the active preset's
// template. A nil result means "use the backend default".
func Resolve(activeID, customText string) *string {
	if IsCustom(activeID) {
		if customText == "" {
			return nil
		}
		return &customText
	}
	p, ok := byID[activeID]
	if !ok || p.Template == "" {
		return nil
	}
	t := p.Template
	return &t
}
