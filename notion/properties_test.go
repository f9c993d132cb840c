package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyRoundTrip(t *testing.T) {
	tests := []struct {
		typ   PropertyType
		value any
		want  any
	}{
		{PropertyTypeTitle, "Hook ideas", "Hook ideas"},
		{PropertyTypeRichText, "Short note", "Short note"},
		{PropertyTypeNumber, 42, float64(42)},
		{PropertyTypeNumber, "3.5", 3.5},
		{PropertyTypeCheckbox, true, true},
		{PropertyTypeCheckbox, "false", false},
		{PropertyTypeSelect, "Draft", "Draft"},
		{PropertyTypeStatus, "Published", "Published"},
		{PropertyTypeMultiSelect, []string{"AI", "Leadership"}, []string{"AI", "Leadership"}},
		{PropertyTypeMultiSelect, "AI, Leadership", []string{"AI", "Leadership"}},
		{PropertyTypeURL, "https://example.com", "https://example.com"},
		{PropertyTypeDate, "2026-01-02", "2026-01-02"},
		{PropertyTypeDate, map[string]any{"start": "2026-01-02", "end": "2026-01-09"}, map[string]string{"start": "2026-01-02", "end": "2026-01-09"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			pv, err := BuildPropertyValue(tt.typ, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, pv.Type)
			assert.Equal(t, tt.want, ExtractPropertyValue(pv))
		})
	}
}

func TestBuildPropertyValueErrors(t *testing.T) {
	_, err := BuildPropertyValue(PropertyTypeFormula, "1+1")
	assert.ErrorIs(t, err, ErrReadOnlyProperty)

	_, err = BuildPropertyValue(PropertyTypeNumber, "many")
	assert.ErrorContains(t, err, "invalid number")

	_, err = BuildPropertyValue(PropertyTypeCheckbox, "maybe")
	assert.ErrorContains(t, err, "invalid checkbox")

	_, err = BuildPropertyValue(PropertyTypeDate, map[string]any{"end": "2026-01-09"})
	assert.ErrorContains(t, err, "requires start")

	_, err = BuildPropertyValue("hologram", "x")
	assert.ErrorContains(t, err, "unsupported property type")
}

func TestBuildPropertyValueNilClears(t *testing.T) {
	pv, err := BuildPropertyValue(PropertyTypeSelect, nil)
	require.NoError(t, err)
	assert.Equal(t, PropertyValue{Type: PropertyTypeSelect}, pv)
	assert.Nil(t, ExtractPropertyValue(pv))
}

func TestIsEmptyValue(t *testing.T) {
	assert.True(t, IsEmptyValue(nil))
	assert.True(t, IsEmptyValue(""))
	assert.True(t, IsEmptyValue([]string{}))
	assert.True(t, IsEmptyValue(false))
	assert.False(t, IsEmptyValue("x"))
	assert.False(t, IsEmptyValue(float64(0)))
	assert.False(t, IsEmptyValue([]string{"a"}))
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema(map[string]PropertySchema{
		"Name":   TitleProperty(),
		"Status": SelectProperty(Options("Idea", "Draft")...),
	}))
	assert.ErrorIs(t, ValidateSchema(map[string]PropertySchema{"Notes": RichTextProperty()}), ErrSchemaTitle)
	assert.ErrorIs(t, ValidateSchema(map[string]PropertySchema{"A": TitleProperty(), "B": TitleProperty()}), ErrSchemaTitle)
}

func TestIDs(t *testing.T) {
	const want = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	assert.Equal(t, want, NormalizeID("1c2d3e4f5a6b4c7d8e9f0a1b2c3d4e5f"))
	assert.Equal(t, want, NormalizeID(" "+want+" "))
	assert.Equal(t, want, NormalizeID("https://www.notion.so/team/Content-Hub-1c2d3e4f5a6b4c7d8e9f0a1b2c3d4e5f?v=abc"))
	assert.Equal(t, "not-an-id", NormalizeID("not-an-id"))

	got, err := ValidateID("1c2d3e4f5a6b4c7d8e9f0a1b2c3d4e5f")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	_, err = ValidateID("not-an-id")
	assert.ErrorContains(t, err, "invalid Notion ID")
}

func TestRichTextFromSplitsLongText(t *testing.T) {
	long := make([]rune, MaxRichTextLength+10)
	for i := range long {
		long[i] = 'é'
	}
	runs := RichTextFrom(string(long))
	require.Len(t, runs, 2)
	assert.Len(t, []rune(runs[0].Content()), MaxRichTextLength)
	assert.Equal(t, string(long), PlainText(runs))

	assert.Len(t, RichTextFrom(""), 1)
}
