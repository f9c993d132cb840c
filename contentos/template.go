// Package contentos defines the LinkedIn Content OS workspace template and
// creates it in Notion.
package contentos

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

//go:embed template.yaml
var defaultTemplate []byte

// Template describes the databases and pages of a Content OS workspace.
type Template struct {
	Title       string        `yaml:"title"`
	Icon        string        `yaml:"icon"`
	Description string        `yaml:"description"`
	Databases   []DatabaseDef `yaml:"databases"`
	Pages       []PageDef     `yaml:"pages"`
}

// DatabaseDef is one database of the template. Key names the database in
// relation targets and in the config file.
type DatabaseDef struct {
	Key         string           `yaml:"key"`
	Title       string           `yaml:"title"`
	Icon        string           `yaml:"icon"`
	Description string           `yaml:"description"`
	Properties  []PropertyDef    `yaml:"properties"`
	Rows        []map[string]any `yaml:"rows"`
}

// PropertyDef is one property of a database. Target is the key of the
// database a relation points at.
type PropertyDef struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Options    []string `yaml:"options"`
	Format     string   `yaml:"format"`
	Expression string   `yaml:"expression"`
	Target     string   `yaml:"target"`
	Dual       bool     `yaml:"dual"`
}

// PageDef is an onboarding page written in markdown.
type PageDef struct {
	Title   string `yaml:"title"`
	Icon    string `yaml:"icon"`
	Content string `yaml:"content"`
}

// DefaultTemplate returns the built-in template.
func DefaultTemplate() (*Template, error) {
	return ParseTemplate(defaultTemplate)
}

// ParseTemplate decodes and validates a YAML template.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that keys are unique, every relation targets a known
// database and every schema is valid.
func (t *Template) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("template: missing title")
	}
	keys := map[string]bool{}
	for _, db := range t.Databases {
		if db.Key == "" || keys[db.Key] {
			return fmt.Errorf("template: database %q: missing or duplicate key %q", db.Title, db.Key)
		}
		keys[db.Key] = true
	}
	for _, db := range t.Databases {
		for _, p := range db.Properties {
			if p.Type == string(notion.PropertyTypeRelation) && !keys[p.Target] {
				return fmt.Errorf("template: %s.%s: unknown relation target %q", db.Key, p.Name, p.Target)
			}
		}
		schema, err := db.Schema()
		if err != nil {
			return fmt.Errorf("template: %s: %w", db.Key, err)
		}
		if err := notion.ValidateSchema(schema); err != nil {
			return fmt.Errorf("template: %s: %w", db.Key, err)
		}
	}
	return nil
}

// Database returns the database definition with the given key.
func (t *Template) Database(key string) (DatabaseDef, bool) {
	for _, db := range t.Databases {
		if db.Key == key {
			return db, true
		}
	}
	return DatabaseDef{}, false
}

// Schema returns the properties of the database that can be created with
// it. Relations are left out because their targets must exist first.
func (d DatabaseDef) Schema() (map[string]notion.PropertySchema, error) {
	schema := make(map[string]notion.PropertySchema, len(d.Properties))
	for _, p := range d.Properties {
		if p.Type == string(notion.PropertyTypeRelation) {
			continue
		}
		s, err := p.PropertySchema()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		schema[p.Name] = s
	}
	return schema, nil
}

// Relations returns the relation properties of the database.
func (d DatabaseDef) Relations() []PropertyDef {
	var out []PropertyDef
	for _, p := range d.Properties {
		if p.Type == string(notion.PropertyTypeRelation) {
			out = append(out, p)
		}
	}
	return out
}

// PropertyType returns the type of the named property.
func (d DatabaseDef) PropertyType(name string) (notion.PropertyType, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return notion.PropertyType(p.Type), true
		}
	}
	return "", false
}

// PropertySchema converts the definition into a schema. Relations are not
// supported because their target is a template key.
func (p PropertyDef) PropertySchema() (notion.PropertySchema, error) {
	switch notion.PropertyType(p.Type) {
	case notion.PropertyTypeTitle:
		return notion.TitleProperty(), nil
	case notion.PropertyTypeRichText:
		return notion.RichTextProperty(), nil
	case notion.PropertyTypeNumber:
		return notion.NumberProperty(p.Format), nil
	case notion.PropertyTypeSelect:
		return notion.SelectProperty(notion.Options(p.Options...)...), nil
	case notion.PropertyTypeMultiSelect:
		return notion.MultiSelectProperty(notion.Options(p.Options...)...), nil
	case notion.PropertyTypeStatus:
		return notion.StatusProperty(), nil
	case notion.PropertyTypeDate:
		return notion.DateProperty(), nil
	case notion.PropertyTypePeople:
		return notion.PeopleProperty(), nil
	case notion.PropertyTypeFiles:
		return notion.FilesProperty(), nil
	case notion.PropertyTypeCheckbox:
		return notion.CheckboxProperty(), nil
	case notion.PropertyTypeURL:
		return notion.URLProperty(), nil
	case notion.PropertyTypeEmail:
		return notion.EmailProperty(), nil
	case notion.PropertyTypePhoneNumber:
		return notion.PhoneNumberProperty(), nil
	case notion.PropertyTypeFormula:
		if p.Expression == "" {
			return notion.PropertySchema{}, fmt.Errorf("formula without expression")
		}
		return notion.FormulaProperty(p.Expression), nil
	case notion.PropertyTypeCreatedTime:
		return notion.CreatedTimeProperty(), nil
	case notion.PropertyTypeLastEditedTime:
		return notion.LastEditedTimeProperty(), nil
	}
	return notion.PropertySchema{}, fmt.Errorf("unsupported type %q", p.Type)
}
