// Defines data source schemas and their builders.

package notion

import (
	"errors"
	"fmt"
	"sort"
)

// PropertyType discriminates property schemas and values.
type PropertyType string

// Property types.
const (
	PropertyTypeTitle          PropertyType = "title"
	PropertyTypeRichText       PropertyType = "rich_text"
	PropertyTypeNumber         PropertyType = "number"
	PropertyTypeSelect         PropertyType = "select"
	PropertyTypeMultiSelect    PropertyType = "multi_select"
	PropertyTypeDate           PropertyType = "date"
	PropertyTypePeople         PropertyType = "people"
	PropertyTypeFiles          PropertyType = "files"
	PropertyTypeCheckbox       PropertyType = "checkbox"
	PropertyTypeURL            PropertyType = "url"
	PropertyTypeEmail          PropertyType = "email"
	PropertyTypePhoneNumber    PropertyType = "phone_number"
	PropertyTypeFormula        PropertyType = "formula"
	PropertyTypeRelation       PropertyType = "relation"
	PropertyTypeRollup         PropertyType = "rollup"
	PropertyTypeCreatedTime    PropertyType = "created_time"
	PropertyTypeCreatedBy      PropertyType = "created_by"
	PropertyTypeLastEditedTime PropertyType = "last_edited_time"
	PropertyTypeLastEditedBy   PropertyType = "last_edited_by"
	PropertyTypeStatus         PropertyType = "status"
	PropertyTypeUniqueID       PropertyType = "unique_id"
	PropertyTypeVerification   PropertyType = "verification"
)

// ErrSchemaTitle is returned when a schema does not have exactly one title property.
var ErrSchemaTitle = errors.New("schema must have exactly one title property")

// PropertySchema is one entry of a data source schema, keyed by property name.
type PropertySchema struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Type        PropertyType `json:"type,omitempty"`
	Description string       `json:"description,omitempty"`

	Title          *struct{}       `json:"title,omitempty"`
	RichText       *struct{}       `json:"rich_text,omitempty"`
	Number         *NumberConfig   `json:"number,omitempty"`
	Select         *SelectConfig   `json:"select,omitempty"`
	MultiSelect    *SelectConfig   `json:"multi_select,omitempty"`
	Date           *struct{}       `json:"date,omitempty"`
	People         *struct{}       `json:"people,omitempty"`
	Files          *struct{}       `json:"files,omitempty"`
	Checkbox       *struct{}       `json:"checkbox,omitempty"`
	URL            *struct{}       `json:"url,omitempty"`
	Email          *struct{}       `json:"email,omitempty"`
	PhoneNumber    *struct{}       `json:"phone_number,omitempty"`
	Formula        *FormulaConfig  `json:"formula,omitempty"`
	Relation       *RelationConfig `json:"relation,omitempty"`
	Rollup         *RollupConfig   `json:"rollup,omitempty"`
	CreatedTime    *struct{}       `json:"created_time,omitempty"`
	CreatedBy      *struct{}       `json:"created_by,omitempty"`
	LastEditedTime *struct{}       `json:"last_edited_time,omitempty"`
	LastEditedBy   *struct{}       `json:"last_edited_by,omitempty"`
	Status         *StatusConfig   `json:"status,omitempty"`
	UniqueID       *UniqueIDConfig `json:"unique_id,omitempty"`
	Verification   *struct{}       `json:"verification,omitempty"`
}

// NumberConfig configures a number property.
type NumberConfig struct {
	Format string `json:"format,omitempty"` // number, number_with_commas, percent, dollar, ...
}

// SelectConfig configures select and multi_select properties.
type SelectConfig struct {
	Options []SelectOption `json:"options"`
}

// SelectOption is one option of a select, multi_select or status property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color Color  `json:"color,omitempty"`
}

// StatusConfig configures a status property.
type StatusConfig struct {
	Options []SelectOption `json:"options,omitempty"`
	Groups  []StatusGroup  `json:"groups,omitempty"`
}

// StatusGroup groups status options.
type StatusGroup struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Color     Color    `json:"color,omitempty"`
	OptionIDs []string `json:"option_ids,omitempty"`
}

// FormulaConfig configures a formula property.
type FormulaConfig struct {
	Expression string `json:"expression"`
}

// RelationConfig configures a relation property. Since 2025-09-03 relations
// target a data source.
type RelationConfig struct {
	DataSourceID   string              `json:"data_source_id"`
	DatabaseID     string              `json:"database_id,omitempty"`
	Type           string              `json:"type,omitempty"` // "single_property" or "dual_property"
	SingleProperty *struct{}           `json:"single_property,omitempty"`
	DualProperty   *DualPropertyConfig `json:"dual_property,omitempty"`
}

// DualPropertyConfig configures the synced side of a two-way relation.
type DualPropertyConfig struct {
	SyncedPropertyName string `json:"synced_property_name,omitempty"`
	SyncedPropertyID   string `json:"synced_property_id,omitempty"`
}

// RollupConfig configures a rollup property.
type RollupConfig struct {
	RelationPropertyName string `json:"relation_property_name"`
	RollupPropertyName   string `json:"rollup_property_name"`
	Function             string `json:"function"` // count, sum, average, ...
}

// UniqueIDConfig configures a unique_id property.
type UniqueIDConfig struct {
	Prefix *string `json:"prefix"`
}

var empty = &struct{}{}

// TitleProperty returns a title property schema.
func TitleProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeTitle, Title: empty}
}

// RichTextProperty returns a rich_text property schema.
func RichTextProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeRichText, RichText: empty}
}

// NumberProperty returns a number property schema.
func NumberProperty(format string) PropertySchema {
	return PropertySchema{Type: PropertyTypeNumber, Number: &NumberConfig{Format: format}}
}

// SelectProperty returns a select property schema with the given options.
func SelectProperty(options ...SelectOption) PropertySchema {
	return PropertySchema{Type: PropertyTypeSelect, Select: &SelectConfig{Options: nonNilOptions(options)}}
}

// MultiSelectProperty returns a multi_select property schema.
func MultiSelectProperty(options ...SelectOption) PropertySchema {
	return PropertySchema{Type: PropertyTypeMultiSelect, MultiSelect: &SelectConfig{Options: nonNilOptions(options)}}
}

// StatusProperty returns a status property schema. Notion creates default
// groups; custom options can only be added after creation.
func StatusProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeStatus, Status: &StatusConfig{}}
}

// DateProperty returns a date property schema.
func DateProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeDate, Date: empty}
}

// PeopleProperty returns a people property schema.
func PeopleProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypePeople, People: empty}
}

// FilesProperty returns a files property schema.
func FilesProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeFiles, Files: empty}
}

// CheckboxProperty returns a checkbox property schema.
func CheckboxProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeCheckbox, Checkbox: empty}
}

// URLProperty returns a url property schema.
func URLProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeURL, URL: empty}
}

// EmailProperty returns an email property schema.
func EmailProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeEmail, Email: empty}
}

// PhoneNumberProperty returns a phone_number property schema.
func PhoneNumberProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypePhoneNumber, PhoneNumber: empty}
}

// FormulaProperty returns a formula property schema.
func FormulaProperty(expression string) PropertySchema {
	return PropertySchema{Type: PropertyTypeFormula, Formula: &FormulaConfig{Expression: expression}}
}

// RelationProperty returns a relation to dataSourceID; dual makes it two-way.
func RelationProperty(dataSourceID string, dual bool) PropertySchema {
	rc := &RelationConfig{DataSourceID: dataSourceID}
	if dual {
		rc.Type = "dual_property"
		rc.DualProperty = &DualPropertyConfig{}
	} else {
		rc.Type = "single_property"
		rc.SingleProperty = empty
	}
	return PropertySchema{Type: PropertyTypeRelation, Relation: rc}
}

// RollupProperty returns a rollup over a relation property.
func RollupProperty(relation, property, function string) PropertySchema {
	return PropertySchema{Type: PropertyTypeRollup, Rollup: &RollupConfig{
		RelationPropertyName: relation,
		RollupPropertyName:   property,
		Function:             function,
	}}
}

// CreatedTimeProperty returns a created_time property schema.
func CreatedTimeProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeCreatedTime, CreatedTime: empty}
}

// CreatedByProperty returns a created_by property schema.
func CreatedByProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeCreatedBy, CreatedBy: empty}
}

// LastEditedTimeProperty returns a last_edited_time property schema.
func LastEditedTimeProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeLastEditedTime, LastEditedTime: empty}
}

// LastEditedByProperty returns a last_edited_by property schema.
func LastEditedByProperty() PropertySchema {
	return PropertySchema{Type: PropertyTypeLastEditedBy, LastEditedBy: empty}
}

// UniqueIDProperty returns a unique_id property schema.
func UniqueIDProperty(prefix string) PropertySchema {
	var p *string
	if prefix != "" {
		p = &prefix
	}
	return PropertySchema{Type: PropertyTypeUniqueID, UniqueID: &UniqueIDConfig{Prefix: p}}
}

// Options builds select options from names, cycling through colors.
func Options(names ...string) []SelectOption {
	colors := []Color{ColorBlue, ColorGreen, ColorYellow, ColorOrange, ColorPurple, ColorPink, ColorRed, ColorGray, ColorBrown}
	out := make([]SelectOption, len(names))
	for i, n := range names {
		out[i] = SelectOption{Name: n, Color: colors[i%len(colors)]}
	}
	return out
}

func nonNilOptions(o []SelectOption) []SelectOption {
	if o == nil {
		return []SelectOption{}
	}
	return o
}

// Kind returns the property type, inferring it from the configured variant
// when Type is unset.
func (s PropertySchema) Kind() PropertyType {
	if s.Type != "" {
		return s.Type
	}
	switch {
	case s.Title != nil:
		return PropertyTypeTitle
	case s.RichText != nil:
		return PropertyTypeRichText
	case s.Number != nil:
		return PropertyTypeNumber
	case s.Select != nil:
		return PropertyTypeSelect
	case s.MultiSelect != nil:
		return PropertyTypeMultiSelect
	case s.Date != nil:
		return PropertyTypeDate
	case s.People != nil:
		return PropertyTypePeople
	case s.Files != nil:
		return PropertyTypeFiles
	case s.Checkbox != nil:
		return PropertyTypeCheckbox
	case s.URL != nil:
		return PropertyTypeURL
	case s.Email != nil:
		return PropertyTypeEmail
	case s.PhoneNumber != nil:
		return PropertyTypePhoneNumber
	case s.Formula != nil:
		return PropertyTypeFormula
	case s.Relation != nil:
		return PropertyTypeRelation
	case s.Rollup != nil:
		return PropertyTypeRollup
	case s.CreatedTime != nil:
		return PropertyTypeCreatedTime
	case s.CreatedBy != nil:
		return PropertyTypeCreatedBy
	case s.LastEditedTime != nil:
		return PropertyTypeLastEditedTime
	case s.LastEditedBy != nil:
		return PropertyTypeLastEditedBy
	case s.Status != nil:
		return PropertyTypeStatus
	case s.UniqueID != nil:
		return PropertyTypeUniqueID
	case s.Verification != nil:
		return PropertyTypeVerification
	}
	return ""
}

// OptionNames returns the option names of select, multi_select and status schemas.
func (s PropertySchema) OptionNames() []string {
	var opts []SelectOption
	switch {
	case s.Select != nil:
		opts = s.Select.Options
	case s.MultiSelect != nil:
		opts = s.MultiSelect.Options
	case s.Status != nil:
		opts = s.Status.Options
	}
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Name)
	}
	return names
}

// ValidateSchema checks that properties has exactly one title property and
// that every entry has a known type.
func ValidateSchema(properties map[string]PropertySchema) error {
	titles := 0
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop := properties[name]
		switch k := prop.Kind(); k {
		case "":
			return fmt.Errorf("property %q has no type", name)
		case PropertyTypeTitle:
			titles++
		}
	}
	if titles != 1 {
		return fmt.Errorf("%w: found %d", ErrSchemaTitle, titles)
	}
	return nil
}

// SchemaTitleProperty returns the name of the title property of a schema.
func SchemaTitleProperty(properties map[string]PropertySchema) string {
	for name, prop := range properties {
		if prop.Kind() == PropertyTypeTitle {
			return name
		}
	}
	return ""
}
