// Package catalog holds the languages and CEFR levels rooms can be opened for.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Language is a practice language and the script guidance given to the generator.
type Language struct {
	Code         string            `yaml:"code" json:"code"`
	DisplayName  string            `yaml:"display_name" json:"display_name"`
	NativeSymbol string            `yaml:"native_symbol" json:"native_symbol"`
	RomanSymbol  string            `yaml:"roman_symbol" json:"roman_symbol"`
	SpeechCode   string            `yaml:"speech_code" json:"speech_code"`
	ScriptNotes  string            `yaml:"script_notes" json:"-"`
	Scenarios    map[string]string `yaml:"scenarios" json:"scenarios"`
}

// Level is a CEFR proficiency level.
type Level struct {
	Code        string `yaml:"code" json:"code"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the static set of languages and levels.
type Catalog struct {
	Languages []Language `yaml:"languages" json:"languages"`
	Levels    []Level    `yaml:"levels" json:"levels"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes a YAML catalog and checks every language has a scenario per level.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(c.Languages) == 0 || len(c.Levels) == 0 {
		return nil, fmt.Errorf("catalog needs at least one language and one level")
	}
	for _, lang := range c.Languages {
		for _, lvl := range c.Levels {
			if strings.TrimSpace(lang.Scenarios[lvl.Code]) == "" {
				return nil, fmt.Errorf("catalog: %s has no default scenario for %s", lang.Code, lvl.Code)
			}
		}
	}
	return &c, nil
}

// Language looks a language up by code, ignoring case.
func (c *Catalog) Language(code string) (Language, bool) {
	for _, l := range c.Languages {
		if strings.EqualFold(l.Code, strings.TrimSpace(code)) {
			return l, true
		}
	}
	return Language{}, false
}

// Level looks a level up by code, ignoring case.
func (c *Catalog) Level(code string) (Level, bool) {
	for _, l := range c.Levels {
		if strings.EqualFold(l.Code, strings.TrimSpace(code)) {
			return l, true
		}
	}
	return Level{}, false
}

// ResolveScenario returns the trimmed prompt, or the default scenario for the
// language and level when the prompt is blank.
func (c *Catalog) ResolveScenario(language, level, prompt string) string {
	if p := strings.TrimSpace(prompt); p != "" {
		return p
	}
	lang, ok := c.Language(language)
	if !ok {
		return ""
	}
	lvl, ok := c.Level(level)
	if !ok {
		return ""
	}
	return lang.Scenarios[lvl.Code]
}
