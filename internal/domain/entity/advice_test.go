package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Recycle", CategoryRecycle, true},
		{"compost", CategoryCompost, true},
		{" LANDFILL\n", CategoryLandfill, true},
		{"", "", false},
		{"Trash", "", false},
		{"Recyclable", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestResultConstructors(t *testing.T) {
	f := FailureResult("no json")
	assert.True(t, f.Failed())
	assert.Nil(t, f.Classification)
	assert.False(t, f.FromModel)

	s := StructuredResult(Classification{Category: CategoryCompost, Advice: "Peels go in the green bin."})
	assert.False(t, s.Failed())
	assert.Equal(t, Structured, s.Kind)
	assert.Equal(t, CategoryCompost, s.Classification.Category)
}
