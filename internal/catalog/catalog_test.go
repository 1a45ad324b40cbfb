package catalog

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogMatchesPolicy(t *testing.T) {
	require.NoError(t, Default().Verify())
}

func TestVerifyDetectsRenamedSubtype(t *testing.T) {
	c := New([]Category{{
		Name:        "FSD",
		LetterTypes: map[string][]string{"Warning Letter": {"Warning for Low Attendence"}},
	}})
	err := c.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Warning for Low Attendance")
}

func TestLetterTypesSortedAndSubtypesConsistent(t *testing.T) {
	c := Default()
	for _, category := range c.Categories() {
		types := c.LetterTypes(category)
		assert.True(t, sort.StringsAreSorted(types), "letter types of %s not sorted", category)
		for _, lt := range types {
			subs := c.Subtypes(category, lt)
			assert.NotNil(t, subs)
			assert.Equal(t, len(subs) > 0, c.HasSubtypes(category, lt), "%s/%s", category, lt)
		}
	}
}

func TestEveryCategoryResolves(t *testing.T) {
	c := Default()
	for _, category := range c.Categories() {
		assert.True(t, c.Has(category))
		assert.NotNil(t, c.LetterTypes(category))
	}
	assert.Empty(t, c.LetterTypes("DM"))
}

func TestUnknownKeysYieldEmpty(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{}, c.LetterTypes("nope"))
	assert.Equal(t, []string{}, c.Subtypes("nope", "Warning Letter"))
	assert.Equal(t, []string{}, c.Subtypes("FSD", "nope"))
	assert.False(t, c.HasSubtypes("FSD", "nope"))
	assert.Equal(t, ChannelCode, c.Channel("nope"))
}

func TestSubtypesReturnsCopy(t *testing.T) {
	c := Default()
	subs := c.Subtypes("FSD", "Warning Letter")
	subs[0] = "mutated"
	assert.Equal(t, "Warning for Low Attendance", c.Subtypes("FSD", "Warning Letter")[0])
}

func TestAppreciationLetterHasNoSubtypesForClients(t *testing.T) {
	c := Default()
	assert.False(t, c.HasSubtypes("IT-Nexcore", "Appreciation Letter"))
	assert.True(t, c.HasSubtypes("FSD", "Appreciation Letter"))
	assert.Equal(t, ChannelClient, c.Channel("IT-Nexcore"))
}

func TestValidSubtype(t *testing.T) {
	c := Default()
	assert.True(t, c.ValidSubtype("FSD", "Warning Letter", "Warning for Misconduct"))
	assert.False(t, c.ValidSubtype("FSD", "Warning Letter", "Warning Letter"))
	assert.True(t, c.ValidSubtype("HR", "Offer Letter", "Offer Letter"))
	assert.False(t, c.ValidSubtype("HR", "Offer Letter", "Relieving Letter"))
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		course string
		field  Field
		want   bool
	}{
		{"Warning for Low Attendance", FieldAttendancePercent, true},
		{"Warning for Low Attendance", FieldMisconductReason, false},
		{"Warning for Misconduct", FieldMisconductReason, true},
		{"Committee Member", FieldRole, true},
		{"Committee Member", FieldCommitteeType, true},
		{"Internship Completion Certificate", FieldProjectName, true},
		{"Internship Completion Certificate", FieldDescription, false},
		{"Appreciation Letter", FieldDescription, false},
		{"unknown", FieldRole, false},
	}
	for _, tt := range tests {
		t.Run(tt.course+"/"+string(tt.field), func(t *testing.T) {
			assert.Equal(t, tt.want, Requires(tt.course, tt.field))
		})
	}
}

func TestAllowedAlwaysIncludesIssueDate(t *testing.T) {
	assert.True(t, Allowed("")[FieldIssueDate])
	assert.Len(t, Allowed(""), 1)
	allowed := Allowed("Internship Completion Certificate")
	assert.True(t, allowed[FieldDescription])
	assert.True(t, allowed[FieldRole])
	assert.False(t, allowed[FieldAttendancePercent])
}

func TestLookupIsStable(t *testing.T) {
	id, ok := Lookup("Warning for Low Attendance")
	require.True(t, ok)
	assert.Equal(t, SubtypeLowAttendance, id)
	_, ok = Lookup("Warning Letter")
	assert.False(t, ok)
}

func TestDescribeFields(t *testing.T) {
	fields := DescribeFields("Internship Completion Certificate")
	var names []Field
	required := map[Field]bool{}
	for _, f := range fields {
		names = append(names, f.Name)
		required[f.Name] = f.Required
	}
	assert.Equal(t, []Field{FieldIssueDate, FieldStartDate, FieldEndDate, FieldRole, FieldProjectName, FieldDescription}, names)
	assert.True(t, required[FieldIssueDate])
	assert.True(t, required[FieldProjectName])
	assert.False(t, required[FieldDescription])

	att := DescribeFields("Warning for Low Attendance")
	require.Len(t, att, 2)
	assert.Equal(t, "number", att[1].Kind)
	require.NotNil(t, att[1].Max)
	assert.Equal(t, 100.0, *att[1].Max)

	assert.Len(t, DescribeFields(""), 1)
}

func TestDescribeCategory(t *testing.T) {
	info := Default().DescribeCategory("FSD")
	assert.Equal(t, ChannelCode, info.Channel)
	for _, lt := range info.LetterTypes {
		require.NotEmpty(t, lt.Subtypes, lt.Name)
		if len(Default().Subtypes("FSD", lt.Name)) == 0 {
			assert.Equal(t, lt.Name, lt.Subtypes[0].Name)
		}
	}

	assert.Empty(t, Default().DescribeCategory("Nope").LetterTypes)
	assert.Len(t, Default().Describe(), len(Default().Categories()))
}
