package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// referenceHash recomputes the rolling hash in 64-bit space and truncates
// explicitly after every step.
func referenceHash(s string) int32 {
	var h int64
	for _, c := range []byte(s) {
		h = int64(int32(uint32(h*31 + int64(c))))
	}
	return int32(h)
}

func TestDailyHash(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		expected int32
	}{
		{name: "empty string", date: "", expected: 0},
		{name: "positive hash", date: "2025-06-15", expected: 274311039},
		{name: "negative hash", date: "2024-01-01", expected: -613341632},
		{name: "negative hash leap day", date: "2024-02-29", expected: -613311771},
		{name: "last century", date: "1999-12-31", expected: -45774139},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DailyHash(tt.date))
		})
	}
}

func TestDailyID(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		expected int
	}{
		{name: "empty string maps to first id", date: "", expected: 1},
		{name: "positive hash", date: "2025-06-15", expected: 776},
		{name: "negative hash uses absolute remainder", date: "2024-01-01", expected: 449},
		{name: "negative hash leap day", date: "2024-02-29", expected: 222},
		{name: "last century", date: "1999-12-31", expected: 386},
		{name: "positive hash current era", date: "2026-10-19", expected: 618},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DailyID(tt.date, DefaultCatalogSize))
		})
	}
}

func TestDailyID_AlwaysInRange(t *testing.T) {
	start := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	negatives := 0

	for day := 0; day < 365*60; day++ {
		date := DailyDate(start.AddDate(0, 0, day))
		hash := DailyHash(date)
		if hash < 0 {
			negatives++
		}
		assert.Equal(t, referenceHash(date), hash, "hash mismatch for %s", date)

		id := DailyID(date, DefaultCatalogSize)
		if id < 1 || id > DefaultCatalogSize {
			t.Fatalf("daily id %d out of range for %s", id, date)
		}
	}

	assert.Positive(t, negatives, "expected wraparound to produce negative hashes")
}

func TestDailyID_ArbitraryStrings(t *testing.T) {
	inputs := []string{"a", "zz", "pokemon", "\xff\xff\xff\xff\xff\xff\xff\xff", "9999-99-99"}
	for i := 0; i < 200; i++ {
		inputs = append(inputs, fmt.Sprintf("input-%d-%x", i, i*7919))
	}

	for _, in := range inputs {
		id := DailyID(in, DefaultCatalogSize)
		assert.GreaterOrEqual(t, id, 1, in)
		assert.LessOrEqual(t, id, DefaultCatalogSize, in)
	}
}

func TestDailyDate(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		expected string
	}{
		{
			name:     "utc",
			at:       time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			expected: "2024-01-01",
		},
		{
			name:     "local time converted to utc",
			at:       time.Date(2024, 1, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			expected: "2024-01-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DailyDate(tt.at))
		})
	}
}
