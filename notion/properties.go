// Encodes and decodes page property values.

package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrReadOnlyProperty is returned when encoding a value for a computed property.
var ErrReadOnlyProperty = errors.New("property type is read-only")

// PropertyValue is the value of one page property. Only the field matching Type is set.
type PropertyValue struct {
	ID   string       `json:"id,omitempty"`
	Type PropertyType `json:"type"`

	Title          []RichText         `json:"title,omitempty"`
	RichText       []RichText         `json:"rich_text,omitempty"`
	Number         *float64           `json:"number,omitempty"`
	Select         *SelectValue       `json:"select,omitempty"`
	MultiSelect    []SelectValue      `json:"multi_select,omitempty"`
	Date           *DateValue         `json:"date,omitempty"`
	People         []User             `json:"people,omitempty"`
	Files          []FileObject       `json:"files,omitempty"`
	Checkbox       *bool              `json:"checkbox,omitempty"`
	URL            *string            `json:"url,omitempty"`
	Email          *string            `json:"email,omitempty"`
	PhoneNumber    *string            `json:"phone_number,omitempty"`
	Formula        *FormulaValue      `json:"formula,omitempty"`
	Relation       []IDRef            `json:"relation,omitempty"`
	Rollup         *RollupValue       `json:"rollup,omitempty"`
	CreatedTime    *time.Time         `json:"created_time,omitempty"`
	CreatedBy      *User              `json:"created_by,omitempty"`
	LastEditedTime *time.Time         `json:"last_edited_time,omitempty"`
	LastEditedBy   *User              `json:"last_edited_by,omitempty"`
	Status         *SelectValue       `json:"status,omitempty"`
	UniqueID       *UniqueIDValue     `json:"unique_id,omitempty"`
	Verification   *VerificationValue `json:"verification,omitempty"`
}

// SelectValue is the value of select and status properties, and an element of multi_select.
type SelectValue struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Color Color  `json:"color,omitempty"`
}

// DateValue is a date or date range.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// FormulaValue is a computed formula result.
type FormulaValue struct {
	Type    string     `json:"type"` // "string", "number", "boolean", "date"
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// RollupValue is a computed rollup result.
type RollupValue struct {
	Type     string          `json:"type"` // "number", "date", "array", "unsupported", "incomplete"
	Number   *float64        `json:"number,omitempty"`
	Date     *DateValue      `json:"date,omitempty"`
	Array    []PropertyValue `json:"array,omitempty"`
	Function string          `json:"function,omitempty"`
}

// UniqueIDValue is the value of a unique_id property.
type UniqueIDValue struct {
	Prefix *string `json:"prefix,omitempty"`
	Number int     `json:"number"`
}

// VerificationValue is the value of a wiki verification property.
type VerificationValue struct {
	State      string     `json:"state"` // "verified", "unverified", "expired"
	VerifiedBy *User      `json:"verified_by,omitempty"`
	Date       *DateValue `json:"date,omitempty"`
}

// MarshalJSON always emits the field named by Type so that empty values
// clear the property instead of being dropped.
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	type alias PropertyValue
	data, err := json.Marshal(alias(v))
	if err != nil || v.Type == "" {
		return data, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if _, ok := m[string(v.Type)]; ok {
		return data, nil
	}
	switch v.Type {
	case PropertyTypeTitle, PropertyTypeRichText, PropertyTypeMultiSelect,
		PropertyTypeRelation, PropertyTypePeople, PropertyTypeFiles:
		m[string(v.Type)] = json.RawMessage("[]")
	default:
		m[string(v.Type)] = json.RawMessage("null")
	}
	return json.Marshal(m)
}

// TitleValue returns a title property value.
func TitleValue(text string) PropertyValue {
	return PropertyValue{Type: PropertyTypeTitle, Title: RichTextFrom(text)}
}

// RichTextValue returns a rich_text property value.
func RichTextValue(text string) PropertyValue {
	return PropertyValue{Type: PropertyTypeRichText, RichText: RichTextFrom(text)}
}

// SelectValueOf returns a select property value.
func SelectValueOf(name string) PropertyValue {
	return PropertyValue{Type: PropertyTypeSelect, Select: &SelectValue{Name: name}}
}

// BuildPropertyValue encodes a loosely typed value, as decoded from JSON, into
// a property value of type propType.
func BuildPropertyValue(propType PropertyType, value any) (PropertyValue, error) {
	pv := PropertyValue{Type: propType}
	if value == nil {
		return pv, nil
	}
	switch propType {
	case PropertyTypeTitle:
		pv.Title = RichTextFrom(toString(value))
	case PropertyTypeRichText:
		pv.RichText = RichTextFrom(toString(value))
	case PropertyTypeNumber:
		n, err := toFloat(value)
		if err != nil {
			return pv, err
		}
		pv.Number = &n
	case PropertyTypeCheckbox:
		b, err := toBool(value)
		if err != nil {
			return pv, err
		}
		pv.Checkbox = &b
	case PropertyTypeSelect:
		pv.Select = &SelectValue{Name: toString(value)}
	case PropertyTypeStatus:
		pv.Status = &SelectValue{Name: toString(value)}
	case PropertyTypeMultiSelect:
		for _, name := range toStrings(value) {
			pv.MultiSelect = append(pv.MultiSelect, SelectValue{Name: name})
		}
	case PropertyTypeDate:
		d, err := toDate(value)
		if err != nil {
			return pv, err
		}
		pv.Date = d
	case PropertyTypeURL:
		s := toString(value)
		pv.URL = &s
	case PropertyTypeEmail:
		s := toString(value)
		pv.Email = &s
	case PropertyTypePhoneNumber:
		s := toString(value)
		pv.PhoneNumber = &s
	case PropertyTypeRelation:
		for _, id := range toStrings(value) {
			pv.Relation = append(pv.Relation, IDRef{ID: NormalizeID(id)})
		}
	case PropertyTypePeople:
		for _, id := range toStrings(value) {
			pv.People = append(pv.People, User{Object: "user", ID: NormalizeID(id)})
		}
	case PropertyTypeFiles:
		for _, u := range toStrings(value) {
			if u == "" {
				continue
			}
			f := ExternalFileObject(u)
			f.Name = u
			pv.Files = append(pv.Files, *f)
		}
	case PropertyTypeVerification:
		pv.Verification = &VerificationValue{State: toString(value)}
	case PropertyTypeFormula, PropertyTypeRollup, PropertyTypeCreatedTime, PropertyTypeCreatedBy,
		PropertyTypeLastEditedTime, PropertyTypeLastEditedBy, PropertyTypeUniqueID:
		return pv, fmt.Errorf("%s: %w", propType, ErrReadOnlyProperty)
	default:
		return pv, fmt.Errorf("unsupported property type %q", propType)
	}
	return pv, nil
}

// ExtractPropertyValue decodes a property value into a simplified scalar,
// list or map suitable for display and JSON output.
func ExtractPropertyValue(prop PropertyValue) any {
	switch prop.Type {
	case PropertyTypeTitle:
		return PlainText(prop.Title)
	case PropertyTypeRichText:
		return PlainText(prop.RichText)
	case PropertyTypeNumber:
		if prop.Number != nil {
			return *prop.Number
		}
	case PropertyTypeCheckbox:
		if prop.Checkbox != nil {
			return *prop.Checkbox
		}
		return false
	case PropertyTypeSelect:
		if prop.Select != nil {
			return prop.Select.Name
		}
	case PropertyTypeStatus:
		if prop.Status != nil {
			return prop.Status.Name
		}
	case PropertyTypeMultiSelect:
		names := make([]string, 0, len(prop.MultiSelect))
		for _, s := range prop.MultiSelect {
			names = append(names, s.Name)
		}
		return names
	case PropertyTypeDate:
		return dateValue(prop.Date)
	case PropertyTypeURL:
		return derefString(prop.URL)
	case PropertyTypeEmail:
		return derefString(prop.Email)
	case PropertyTypePhoneNumber:
		return derefString(prop.PhoneNumber)
	case PropertyTypePeople:
		names := make([]string, 0, len(prop.People))
		for _, u := range prop.People {
			names = append(names, userLabel(&u))
		}
		return names
	case PropertyTypeRelation:
		ids := make([]string, 0, len(prop.Relation))
		for _, r := range prop.Relation {
			ids = append(ids, r.ID)
		}
		return ids
	case PropertyTypeFiles:
		urls := make([]string, 0, len(prop.Files))
		for i := range prop.Files {
			urls = append(urls, prop.Files[i].URL())
		}
		return urls
	case PropertyTypeFormula:
		if f := prop.Formula; f != nil {
			switch f.Type {
			case "string":
				return derefString(f.String)
			case "number":
				if f.Number != nil {
					return *f.Number
				}
			case "boolean":
				if f.Boolean != nil {
					return *f.Boolean
				}
			case "date":
				return dateValue(f.Date)
			}
		}
	case PropertyTypeRollup:
		if r := prop.Rollup; r != nil {
			switch r.Type {
			case "number":
				if r.Number != nil {
					return *r.Number
				}
			case "date":
				return dateValue(r.Date)
			case "array":
				out := make([]any, 0, len(r.Array))
				for _, item := range r.Array {
					out = append(out, ExtractPropertyValue(item))
				}
				return out
			}
		}
	case PropertyTypeCreatedTime:
		if prop.CreatedTime != nil {
			return prop.CreatedTime.Format(time.RFC3339)
		}
	case PropertyTypeLastEditedTime:
		if prop.LastEditedTime != nil {
			return prop.LastEditedTime.Format(time.RFC3339)
		}
	case PropertyTypeCreatedBy:
		if prop.CreatedBy != nil {
			return userLabel(prop.CreatedBy)
		}
	case PropertyTypeLastEditedBy:
		if prop.LastEditedBy != nil {
			return userLabel(prop.LastEditedBy)
		}
	case PropertyTypeUniqueID:
		if u := prop.UniqueID; u != nil {
			if u.Prefix != nil && *u.Prefix != "" {
				return fmt.Sprintf("%s-%d", *u.Prefix, u.Number)
			}
			return u.Number
		}
	case PropertyTypeVerification:
		if prop.Verification != nil {
			return prop.Verification.State
		}
	}
	return nil
}

// FlattenProperties decodes every property of a page, keyed by name.
func FlattenProperties(props map[string]PropertyValue) map[string]any {
	out := make(map[string]any, len(props))
	for name, p := range props {
		out[name] = ExtractPropertyValue(p)
	}
	return out
}

// IsEmptyValue reports whether a decoded property value carries no data.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case bool:
		return !t
	}
	return false
}

func dateValue(d *DateValue) any {
	if d == nil {
		return nil
	}
	if d.End != nil && *d.End != "" {
		return map[string]string{"start": d.Start, "end": *d.End}
	}
	return d.Start
}

func userLabel(u *User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return strings.Join(toStrings(t), "")
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, toString(item))
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return []string{toString(v)}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("invalid number %v", v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("invalid checkbox value %q", t)
		}
		return b, nil
	}
	return false, fmt.Errorf("invalid checkbox value %v", v)
}

func toDate(v any) (*DateValue, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil, nil
		}
		return &DateValue{Start: t}, nil
	case time.Time:
		return &DateValue{Start: t.Format(time.RFC3339)}, nil
	case map[string]any:
		start, _ := t["start"].(string)
		if start == "" {
			return nil, errors.New("date value requires start")
		}
		d := &DateValue{Start: start}
		if end, ok := t["end"].(string); ok && end != "" {
			d.End = &end
		}
		if tz, ok := t["time_zone"].(string); ok && tz != "" {
			d.TimeZone = &tz
		}
		return d, nil
	case map[string]string:
		return toDate(map[string]any{"start": t["start"], "end": t["end"]})
	}
	return nil, fmt.Errorf("invalid date value %v", v)
}
