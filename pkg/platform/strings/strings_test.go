package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "duplicates and blanks", input: []string{"  foo ", "bar", "foo", "", "  "}, expected: []string{"foo", "bar"}},
		{name: "case sensitive", input: []string{"Foo", "foo"}, expected: []string{"Foo", "foo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSortedSet(t *testing.T) {
	assert.Equal(t, []string{}, SortedSet())
	assert.Equal(t, []string{"a", "b", "c"}, SortedSet("c", " a", "b", "a"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "cardiologia", Fold("Cardiología"))
	assert.Equal(t, "pediatria", Fold("PEDIATRÍA"))
	assert.Equal(t, "jose perez nunez", Fold("  José   Pérez\tNúñez "))
	assert.Equal(t, "", Fold("   "))
}
