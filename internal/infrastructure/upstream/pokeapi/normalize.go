package pokeapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ersonp/pokecache/internal/domain/entities"
)

// rawPokemon accepts both the PokeAPI payload and the already-flattened
// record shape. List elements are decoded lazily by shape.
type rawPokemon struct {
	ID             int               `json:"id"`
	Name           string            `json:"name"`
	Height         int               `json:"height"`
	Weight         int               `json:"weight"`
	BaseExperience *int              `json:"base_experience"`
	Types          []json.RawMessage `json:"types"`
	Abilities      []json.RawMessage `json:"abilities"`
	Stats          []json.RawMessage `json:"stats"`
	Sprites        entities.Sprites  `json:"sprites"`
	ImageURL       string            `json:"imageUrl"`
}

type namedResource struct {
	Name string `json:"name"`
}

type rawStat struct {
	BaseStat int             `json:"base_stat"`
	Stat     json.RawMessage `json:"stat"`
}

// Normalize converts an upstream payload into the canonical record.
// Types and abilities may arrive as [{"type":{"name":..}}] or ["name"];
// stats may carry "stat" as {"name":..} or a plain string.
func Normalize(raw []byte) (entities.Pokemon, error) {
	var r rawPokemon
	if err := json.Unmarshal(raw, &r); err != nil {
		return entities.Pokemon{}, fmt.Errorf("decoding pokemon: %w", err)
	}

	types, err := flattenNames(r.Types, "type")
	if err != nil {
		return entities.Pokemon{}, fmt.Errorf("decoding types: %w", err)
	}
	abilities, err := flattenNames(r.Abilities, "ability")
	if err != nil {
		return entities.Pokemon{}, fmt.Errorf("decoding abilities: %w", err)
	}
	stats, err := flattenStats(r.Stats)
	if err != nil {
		return entities.Pokemon{}, fmt.Errorf("decoding stats: %w", err)
	}

	p := entities.Pokemon{
		ID:             r.ID,
		Name:           r.Name,
		Height:         r.Height,
		Weight:         r.Weight,
		BaseExperience: r.BaseExperience,
		Types:          types,
		Abilities:      abilities,
		Stats:          stats,
		ImageURL:       r.ImageURL,
		Sprites:        r.Sprites,
	}
	if r.Sprites.FrontDefault != "" {
		p.ImageURL = r.Sprites.FrontDefault
	}
	return p.Normalize()
}

func flattenNames(items []json.RawMessage, key string) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		name, err := nameOf(item, key)
		if err != nil {
			return nil, err
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// nameOf reads "x", {"<key>":{"name":"x"}} or {"name":"x"}.
func nameOf(item json.RawMessage, key string) (string, error) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || bytes.Equal(item, []byte("null")) {
		return "", nil
	}
	if item[0] == '"' {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(item, &wrapper); err != nil {
		return "", err
	}
	if inner, ok := wrapper[key]; ok {
		var res namedResource
		if err := json.Unmarshal(inner, &res); err != nil {
			return "", err
		}
		return res.Name, nil
	}
	var res namedResource
	if err := json.Unmarshal(item, &res); err != nil {
		return "", err
	}
	return res.Name, nil
}

func flattenStats(items []json.RawMessage) ([]entities.Stat, error) {
	out := make([]entities.Stat, 0, len(items))
	for _, item := range items {
		var rs rawStat
		if err := json.Unmarshal(item, &rs); err != nil {
			return nil, err
		}
		name, err := nameOf(rs.Stat, "stat")
		if err != nil {
			return nil, err
		}
		out = append(out, entities.Stat{Name: name, BaseStat: rs.BaseStat})
	}
	return out, nil
}
