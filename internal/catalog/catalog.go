// Package catalog holds the declarative schema of every settings section: the
// single source of truth for both form rendering and validation rules.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

//go:embed catalog.yaml
var defaultDocument []byte

// Option is one choice of a select, radio or boolean field.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Field describes a single setting.
type Field struct {
	Key         string          `yaml:"key"`
	Label       string          `yaml:"label"`
	Type        model.FieldType `yaml:"type"`
	Required    bool            `yaml:"required"`
	Encrypted   bool            `yaml:"encrypted"`
	Description string          `yaml:"description"`
	Placeholder string          `yaml:"placeholder"`
	Min         *float64        `yaml:"min"`
	Max         *float64        `yaml:"max"`
	Step        string          `yaml:"step"`
	MinLength   int             `yaml:"min_length"`
	MaxLength   int             `yaml:"max_length"`
	Options     []Option        `yaml:"options"`
	Suffix      string          `yaml:"suffix"`

	// Confirm names a confirmation-only companion input. It is validated
	// against this field and never persisted.
	Confirm string `yaml:"confirm"`

	// Messages overrides validation messages by rule name (required, email,
	// format, numeric, min, max, min_length, max_length, option, confirm).
	Messages map[string]string `yaml:"messages"`

	// Summary is the row description written when the setting is seeded.
	Summary string `yaml:"summary"`
	Seed    string `yaml:"seed"`
}

// HasOption reports whether value is one of the field's options.
func (f Field) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Message returns the override for rule, or fallback.
func (f Field) Message(rule, fallback string) string {
	if m, ok := f.Messages[rule]; ok && m != "" {
		return m
	}
	return fallback
}

// Section groups related fields.
type Section struct {
	Name        string  `yaml:"name"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Icon        string  `yaml:"icon"`
	Sensitive   bool    `yaml:"sensitive"`
	Fields      []Field `yaml:"fields"`
}

type document struct {
	Sections []Section `yaml:"sections"`
}

// Catalog is the read-only, ordered set of sections.
type Catalog struct {
	sections []Section
	byName   map[string]int
	byKey    map[string]string
}

// Default parses the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Sections) == 0 {
		return nil, errors.New("catalog has no sections")
	}

	c := &Catalog{
		sections: doc.Sections,
		byName:   make(map[string]int, len(doc.Sections)),
		byKey:    make(map[string]string),
	}

	for i, s := range doc.Sections {
		if s.Name == "" {
			return nil, fmt.Errorf("section %d has no name", i)
		}
		if _, dup := c.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate section %q", s.Name)
		}
		c.byName[s.Name] = i

		for _, f := range s.Fields {
			if err := validateField(f); err != nil {
				return nil, fmt.Errorf("section %q: %w", s.Name, err)
			}
			if owner, dup := c.byKey[f.Key]; dup {
				return nil, fmt.Errorf("field %q declared in both %q and %q", f.Key, owner, s.Name)
			}
			c.byKey[f.Key] = s.Name
		}
	}

	return c, nil
}

func validateField(f Field) error {
	if f.Key == "" {
		return errors.New("field with empty key")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("field %q has unknown type %q", f.Key, f.Type)
	}
	if (f.Type == model.FieldTypeSelect || f.Type == model.FieldTypeRadio) && len(f.Options) == 0 {
		return fmt.Errorf("field %q of type %s needs options", f.Key, f.Type)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("field %q has min greater than max", f.Key)
	}
	return nil
}

// Sections returns every section in display order.
func (c *Catalog) Sections() []Section {
	return c.sections
}

// Names returns the section names in display order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.sections))
	for i, s := range c.sections {
		names[i] = s.Name
	}
	return names
}

// Section returns the named section.
func (c *Catalog) Section(name string) (Section, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Section{}, false
	}
	return c.sections[i], true
}

// Fields returns the fields of the named section, or nil if it is unknown.
func (c *Catalog) Fields(name string) []Field {
	s, ok := c.Section(name)
	if !ok {
		return nil
	}
	return s.Fields
}

// Field looks up key within section.
func (c *Catalog) Field(section, key string) (Field, bool) {
	for _, f := range c.Fields(section) {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// SectionOf returns the section that declares key.
func (c *Catalog) SectionOf(key string) (string, bool) {
	name, ok := c.byKey[key]
	return name, ok
}

// Sensitive reports whether the named section sits behind the access gate.
func (c *Catalog) Sensitive(name string) bool {
	s, ok := c.Section(name)
	return ok && s.Sensitive
}
