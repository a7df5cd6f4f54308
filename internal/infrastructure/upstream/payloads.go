package upstream

import (
	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

type namedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type listPayload struct {
	Count   int        `json:"count"`
	Results []namedRef `json:"results"`
}

type spriteSet struct {
	FrontDefault *string `json:"front_default"`
	BackDefault  *string `json:"back_default"`
	FrontShiny   *string `json:"front_shiny"`
	BackShiny    *string `json:"back_shiny"`
}

type entityPayload struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Height int    `json:"height"`
	Weight int    `json:"weight"`
	Types  []struct {
		Slot int      `json:"slot"`
		Type namedRef `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int      `json:"base_stat"`
		Stat     namedRef `json:"stat"`
	} `json:"stats"`
	Abilities []struct {
		Ability  namedRef `json:"ability"`
		IsHidden bool     `json:"is_hidden"`
	} `json:"abilities"`
	Sprites spritesPayload `json:"sprites"`
}

type spritesPayload struct {
	FrontDefault *string `json:"front_default"`
	BackDefault  *string `json:"back_default"`
	FrontShiny   *string `json:"front_shiny"`
	BackShiny    *string `json:"back_shiny"`
	Other        struct {
		Showdown *spriteSet `json:"showdown"`
	} `json:"other"`
}

func (s *spritesPayload) static() *spriteSet {
	return &spriteSet{FrontDefault: s.FrontDefault, BackDefault: s.BackDefault, FrontShiny: s.FrontShiny, BackShiny: s.BackShiny}
}

type speciesPayload struct {
	Name           string    `json:"name"`
	EvolutionChain *namedRef `json:"evolution_chain"`
}

type chainLink struct {
	Species   namedRef    `json:"species"`
	EvolvesTo []chainLink `json:"evolves_to"`
}

type chainPayload struct {
	ID    int        `json:"id"`
	Chain *chainLink `json:"chain"`
}

type encounterPayload struct {
	LocationArea *namedRef `json:"location_area"`
}

type abilityPayload struct {
	Name          string `json:"name"`
	EffectEntries []struct {
		ShortEffect string   `json:"short_effect"`
		Language    namedRef `json:"language"`
	} `json:"effect_entries"`
}

func toEntity(p *entityPayload) (*catalog.Entity, error) {
	if p.Name == "" {
		return nil, catalog.MappingError("entity payload has no name", nil)
	}
	e := &catalog.Entity{
		ID:     p.ID,
		Name:   p.Name,
		Height: p.Height,
		Weight: p.Weight,
		Types:  make([]string, 0, len(p.Types)),
	}
	for _, t := range p.Types {
		if t.Type.Name != "" {
			e.Types = append(e.Types, t.Type.Name)
		}
	}
	e.Weaknesses, e.Resistances, e.Immunities = catalog.Matchups(e.Types)

	for _, s := range p.Stats {
		switch s.Stat.Name {
		case "hp":
			e.BaseStats.HP = s.BaseStat
		case "attack":
			e.BaseStats.Attack = s.BaseStat
		case "defense":
			e.BaseStats.Defense = s.BaseStat
		case "speed":
			e.BaseStats.Speed = s.BaseStat
		case "special-attack":
			e.BaseStats.SpecialAttack = s.BaseStat
		case "special-defense":
			e.BaseStats.SpecialDefense = s.BaseStat
		}
	}

	e.Sprites = toSprites(p.Sprites.static(), p.Sprites.Other.Showdown)
	return e, nil
}

// toSprites prefers the animated showdown set and falls back per variant.
func toSprites(static, showdown *spriteSet) catalog.Sprites {
	pick := func(preferred, fallback func(*spriteSet) *string) string {
		if showdown != nil {
			if v := preferred(showdown); v != nil && *v != "" {
				return *v
			}
		}
		if static != nil {
			if v := fallback(static); v != nil {
				return *v
			}
		}
		return ""
	}
	frontDefault := func(s *spriteSet) *string { return s.FrontDefault }
	backDefault := func(s *spriteSet) *string { return s.BackDefault }
	frontShiny := func(s *spriteSet) *string { return s.FrontShiny }
	backShiny := func(s *spriteSet) *string { return s.BackShiny }
	return catalog.Sprites{
		FrontDefault: pick(frontDefault, frontDefault),
		BackDefault:  pick(backDefault, backDefault),
		FrontShiny:   pick(frontShiny, frontShiny),
		BackShiny:    pick(backShiny, backShiny),
	}
}

func toAbilityRefs(p *entityPayload) []catalog.AbilityRef {
	refs := make([]catalog.AbilityRef, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		if a.Ability.Name == "" {
			continue
		}
		refs = append(refs, catalog.AbilityRef{Name: a.Ability.Name, URL: a.Ability.URL, Hidden: a.IsHidden})
	}
	return refs
}

func toEvolutionNode(l *chainLink) catalog.EvolutionNode {
	n := catalog.EvolutionNode{Species: l.Species.Name}
	for i := range l.EvolvesTo {
		n.EvolvesTo = append(n.EvolvesTo, toEvolutionNode(&l.EvolvesTo[i]))
	}
	return n
}

// englishShortEffect returns the first English short effect, or "" when none exists.
func englishShortEffect(p *abilityPayload) string {
	for _, e := range p.EffectEntries {
		if e.Language.Name == "en" {
			return e.ShortEffect
		}
	}
	return ""
}
