// Package entities contains core domain data structures.
package entities

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyName is returned when a Pokemon has no usable name.
var ErrEmptyName = errors.New("pokemon name is required")

// Pokemon is the canonical, normalized creature record. Everything past the
// upstream adapter boundary sees only this shape.
type Pokemon struct {
	// ID is the upstream numeric id. Zero means the id is unknown.
	ID             int       `json:"id,omitempty"`
	Name           string    `json:"name"`
	Height         int       `json:"height"`
	Weight         int       `json:"weight"`
	BaseExperience *int      `json:"base_experience,omitempty"`
	Types          []string  `json:"types"`
	Abilities      []string  `json:"abilities"`
	Stats          []Stat    `json:"stats"`
	ImageURL       string    `json:"imageUrl"`
	Sprites        Sprites   `json:"sprites"`
	LastUpdated    time.Time `json:"lastUpdated,omitzero"`
}

// Stat is a single base stat value.
type Stat struct {
	Name     string `json:"stat"`
	BaseStat int    `json:"base_stat"`
}

// Sprites holds the sprite image URLs. Empty strings mean the sprite is absent.
type Sprites struct {
	FrontDefault string `json:"front_default,omitempty"`
	BackDefault  string `json:"back_default,omitempty"`
	FrontShiny   string `json:"front_shiny,omitempty"`
	BackShiny    string `json:"back_shiny,omitempty"`
}

// DailyPokemon is a Pokemon annotated with the date it was picked for.
type DailyPokemon struct {
	Pokemon
	DailyDate string `json:"dailyDate"`
}

// NormalizeName converts a name to its lookup form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Normalize returns a copy with lowercased name, types and abilities.
// The receiver is left untouched.
func (p Pokemon) Normalize() (Pokemon, error) {
	out := p
	out.Name = NormalizeName(p.Name)
	if out.Name == "" {
		return Pokemon{}, ErrEmptyName
	}
	out.Types = lowerAll(p.Types)
	out.Abilities = lowerAll(p.Abilities)
	if p.Stats != nil {
		out.Stats = make([]Stat, len(p.Stats))
		copy(out.Stats, p.Stats)
	}
	if p.BaseExperience != nil {
		v := *p.BaseExperience
		out.BaseExperience = &v
	}
	if out.ImageURL == "" {
		out.ImageURL = out.Sprites.FrontDefault
	}
	return out, nil
}

// Daily annotates a copy of p with the given date.
func (p Pokemon) Daily(date string) DailyPokemon {
	return DailyPokemon{Pokemon: p, DailyDate: date}
}

func lowerAll(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
