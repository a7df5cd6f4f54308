package catalog

import "strings"

// Entity is the normalized, cached representation of one catalog entry.
type Entity struct {
	ID          int                `json:"id" msgpack:"id"`
	Name        string             `json:"name" msgpack:"name"`
	Height      int                `json:"height" msgpack:"height"`
	Weight      int                `json:"weight" msgpack:"weight"`
	BaseStats   Stats              `json:"baseStats" msgpack:"base_stats"`
	Types       []string           `json:"types" msgpack:"types"`
	Weaknesses  map[string]float64 `json:"weaknesses" msgpack:"weaknesses"`
	Resistances map[string]float64 `json:"resistances" msgpack:"resistances"`
	Immunities  map[string]float64 `json:"immunities" msgpack:"immunities"`
	Sprites     Sprites            `json:"sprites" msgpack:"sprites"`
}

type Stats struct {
	HP             int `json:"hp" msgpack:"hp"`
	Attack         int `json:"attack" msgpack:"attack"`
	Defense        int `json:"defense" msgpack:"defense"`
	Speed          int `json:"speed" msgpack:"speed"`
	SpecialAttack  int `json:"specialAttack" msgpack:"special_attack"`
	SpecialDefense int `json:"specialDefense" msgpack:"special_defense"`
}

// Sprites holds image URLs; any variant may be empty when upstream has none.
type Sprites struct {
	FrontDefault string `json:"frontDefault,omitempty" msgpack:"front_default,omitempty"`
	BackDefault  string `json:"backDefault,omitempty" msgpack:"back_default,omitempty"`
	FrontShiny   string `json:"frontShiny,omitempty" msgpack:"front_shiny,omitempty"`
	BackShiny    string `json:"backShiny,omitempty" msgpack:"back_shiny,omitempty"`
}

type EvolutionStage struct {
	ID      int     `json:"id" msgpack:"id"`
	Name    string  `json:"name" msgpack:"name"`
	Sprites Sprites `json:"sprites" msgpack:"sprites"`
}

type Ability struct {
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description" msgpack:"description"`
	Hidden      bool   `json:"hidden" msgpack:"hidden"`
}

// AbilityRef is an ability slot as listed on an entity payload, before its
// description has been resolved.
type AbilityRef struct {
	Name   string `msgpack:"name"`
	URL    string `msgpack:"url"`
	Hidden bool   `msgpack:"hidden"`
}

// SpeciesMeta is the subset of species data needed to locate an evolution chain.
type SpeciesMeta struct {
	Name              string `json:"name" msgpack:"name"`
	EvolutionChainURL string `json:"evolutionChainUrl" msgpack:"evolution_chain_url"`
}

// EvolutionNode is one node of an upstream evolution tree.
type EvolutionNode struct {
	Species   string          `msgpack:"species"`
	EvolvesTo []EvolutionNode `msgpack:"evolves_to"`
}

// Flatten returns species names depth-first, parent before children.
func (n EvolutionNode) Flatten() []string {
	var out []string
	if n.Species != "" {
		out = append(out, n.Species)
	}
	for _, child := range n.EvolvesTo {
		out = append(out, child.Flatten()...)
	}
	return out
}

// PageResult is one cursor page of entities.
type PageResult struct {
	Results    []*Entity `json:"results"`
	NextCursor *string   `json:"nextCursor"`
	TotalCount int64     `json:"totalCount"`
}

// WarmStats summarizes a bulk detail warm run.
type WarmStats struct {
	Fetched int `json:"fetched"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ChainID is the last path segment of the evolution chain URL, ignoring a trailing slash.
func (s SpeciesMeta) ChainID() string {
	u := strings.TrimRight(s.EvolutionChainURL, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}

// NormalizeQuery trims and lower-cases a search query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
