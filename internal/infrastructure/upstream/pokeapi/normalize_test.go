package pokeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/pokecache/internal/domain/entities"
)

const pikachuPayload = `{
	"id": 25,
	"name": "Pikachu",
	"height": 4,
	"weight": 60,
	"base_experience": 112,
	"types": [{"slot": 1, "type": {"name": "Electric", "url": "https://pokeapi.co/api/v2/type/13/"}}],
	"abilities": [
		{"ability": {"name": "static", "url": ""}, "is_hidden": false, "slot": 1},
		{"ability": {"name": "lightning-rod", "url": ""}, "is_hidden": true, "slot": 3}
	],
	"stats": [
		{"base_stat": 35, "effort": 0, "stat": {"name": "hp", "url": ""}},
		{"base_stat": 90, "effort": 2, "stat": {"name": "speed", "url": ""}}
	],
	"sprites": {
		"front_default": "https://img/25.png",
		"back_default": "https://img/back/25.png",
		"front_shiny": null,
		"back_shiny": "https://img/back/shiny/25.png",
		"other": {"official-artwork": {"front_default": "https://art/25.png"}}
	}
}`

func TestNormalize_PokeAPIShape(t *testing.T) {
	p, err := Normalize([]byte(pikachuPayload))
	require.NoError(t, err)

	assert.Equal(t, 25, p.ID)
	assert.Equal(t, "pikachu", p.Name)
	assert.Equal(t, 4, p.Height)
	assert.Equal(t, 60, p.Weight)
	require.NotNil(t, p.BaseExperience)
	assert.Equal(t, 112, *p.BaseExperience)
	assert.Equal(t, []string{"electric"}, p.Types)
	assert.Equal(t, []string{"static", "lightning-rod"}, p.Abilities)
	assert.Equal(t, []entities.Stat{{Name: "hp", BaseStat: 35}, {Name: "speed", BaseStat: 90}}, p.Stats)
	assert.Equal(t, "https://img/25.png", p.ImageURL)
	assert.Equal(t, entities.Sprites{
		FrontDefault: "https://img/25.png",
		BackDefault:  "https://img/back/25.png",
		BackShiny:    "https://img/back/shiny/25.png",
	}, p.Sprites)
}

func TestNormalize_FlatShape(t *testing.T) {
	raw := `{
		"id": 132,
		"name": "ditto",
		"types": ["normal"],
		"abilities": ["Limber", "imposter"],
		"stats": [{"stat": "hp", "base_stat": 48}],
		"imageUrl": "https://img/132.png"
	}`

	p, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []string{"normal"}, p.Types)
	assert.Equal(t, []string{"limber", "imposter"}, p.Abilities)
	assert.Equal(t, []entities.Stat{{Name: "hp", BaseStat: 48}}, p.Stats)
	assert.Equal(t, "https://img/132.png", p.ImageURL)
	assert.Nil(t, p.BaseExperience)
}

func TestNormalize_MixedAndMissing(t *testing.T) {
	raw := `{
		"name": "porygon2",
		"types": [{"type": {"name": "normal"}}, "Ghost", null],
		"abilities": [{"name": "trace"}],
		"base_experience": null
	}`

	p, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Zero(t, p.ID)
	assert.Equal(t, []string{"normal", "ghost"}, p.Types)
	assert.Equal(t, []string{"trace"}, p.Abilities)
	assert.NotNil(t, p.Stats)
	assert.Empty(t, p.Stats)
	assert.Empty(t, p.ImageURL)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `{"name":`},
		{name: "missing name", raw: `{"id": 1}`},
		{name: "bad type element", raw: `{"name": "x", "types": [42]}`},
		{name: "bad stat element", raw: `{"name": "x", "stats": ["hp"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw))
			require.Error(t, err)
		})
	}
}

func TestNormalize_MissingNameIsEmptyNameError(t *testing.T) {
	_, err := Normalize([]byte(`{"id": 1}`))
	require.ErrorIs(t, err, entities.ErrEmptyName)
}
