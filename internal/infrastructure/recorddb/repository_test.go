package recorddb

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	dollar := func(n int) string { return "$" + strconv.Itoa(n) }

	tests := []struct {
		name        string
		placeholder func(int) string
		query       string
		expected    string
	}{
		{
			name:     "question marks kept without placeholder",
			query:    "SELECT * FROM pokemon WHERE name = ? AND id = ?",
			expected: "SELECT * FROM pokemon WHERE name = ? AND id = ?",
		},
		{
			name:        "dollar placeholders numbered in order",
			placeholder: dollar,
			query:       "UPDATE pokemon SET last_updated = ? WHERE name = ?",
			expected:    "UPDATE pokemon SET last_updated = $1 WHERE name = $2",
		},
		{
			name:        "no placeholders",
			placeholder: dollar,
			query:       "SELECT COUNT(*) FROM pokemon",
			expected:    "SELECT COUNT(*) FROM pokemon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Repository{dialect: Dialect{Placeholder: tt.placeholder}}
			assert.Equal(t, tt.expected, r.rebind(tt.query))
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "char", expected: "%char%"},
		{input: "CHAR", expected: "%char%"},
		{input: "mr-mime", expected: "%mr-mime%"},
		{input: "50%", expected: `%50\%%`},
		{input: "a_b", expected: `%a\_b%`},
		{input: `a\b`, expected: `%a\\b%`},
		{input: "", expected: "%%"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, likePattern(tt.input))
		})
	}
}

func TestIsDigits(t *testing.T) {
	assert.True(t, isDigits("25"))
	assert.True(t, isDigits("0"))
	assert.False(t, isDigits(""))
	assert.False(t, isDigits("25a"))
	assert.False(t, isDigits("-1"))
	assert.False(t, isDigits("porygon2"))
}

func TestNullable(t *testing.T) {
	assert.False(t, nullableID(0).Valid)
	assert.Equal(t, int64(25), nullableID(25).Int64)
	assert.True(t, nullableID(25).Valid)

	assert.False(t, nullableInt(nil).Valid)
	v := 112
	assert.Equal(t, int64(112), nullableInt(&v).Int64)
}
