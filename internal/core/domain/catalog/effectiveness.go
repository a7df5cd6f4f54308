package catalog

// Types is the closed set of damage categories, in canonical order.
var Types = []string{
	"normal", "fire", "water", "electric", "grass", "ice", "fighting", "poison",
	"ground", "flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// typeChart holds the non-neutral attack -> defend multipliers. Missing pairs are 1.0.
// Built once at init and never mutated.
var typeChart = map[string]map[string]float64{
	"normal": {"rock": 0.5, "steel": 0.5, "ghost": 0},
	"fire": {
		"grass": 2, "ice": 2, "bug": 2, "steel": 2,
		"fire": 0.5, "water": 0.5, "rock": 0.5, "dragon": 0.5,
	},
	"water": {
		"fire": 2, "ground": 2, "rock": 2,
		"water": 0.5, "grass": 0.5, "dragon": 0.5,
	},
	"electric": {
		"water": 2, "flying": 2,
		"electric": 0.5, "grass": 0.5, "dragon": 0.5,
		"ground": 0,
	},
	"grass": {
		"water": 2, "rock": 2, "ground": 2,
		"fire": 0.5, "grass": 0.5, "poison": 0.5, "flying": 0.5, "bug": 0.5, "dragon": 0.5, "steel": 0.5,
	},
	"ice": {
		"grass": 2, "ground": 2, "flying": 2, "dragon": 2,
		"fire": 0.5, "water": 0.5, "ice": 0.5, "steel": 0.5,
	},
	"fighting": {
		"normal": 2, "ice": 2, "rock": 2, "dark": 2, "steel": 2,
		"poison": 0.5, "flying": 0.5, "psychic": 0.5, "bug": 0.5, "fairy": 0.5,
	},
	"poison": {
		"grass": 2, "fairy": 2,
		"poison": 0.5, "ground": 0.5, "rock": 0.5, "ghost": 0.5,
		"steel": 0,
	},
	"ground": {
		"fire": 2, "electric": 2, "poison": 2, "rock": 2, "steel": 2,
		"grass": 0.5, "bug": 0.5,
		"flying": 0,
	},
	"flying": {
		"grass": 2, "fighting": 2, "bug": 2,
		"electric": 0.5, "rock": 0.5, "steel": 0.5,
	},
	"psychic": {
		"fighting": 2, "poison": 2,
		"psychic": 0.5, "steel": 0.5,
		"dark": 0,
	},
	"bug": {
		"grass": 2, "psychic": 2, "dark": 2,
		"fire": 0.5, "fighting": 0.5, "poison": 0.5, "flying": 0.5, "ghost": 0.5, "steel": 0.5, "fairy": 0.5,
	},
	"rock": {
		"fire": 2, "ice": 2, "flying": 2, "bug": 2,
		"fighting": 0.5, "ground": 0.5, "steel": 0.5,
	},
	"ghost": {
		"ghost": 2, "psychic": 2,
		"dark": 0.5,
		"normal": 0,
	},
	"dragon": {"dragon": 2, "steel": 0.5, "fairy": 0},
	"dark": {
		"ghost": 2, "psychic": 2,
		"fighting": 0.5, "dark": 0.5, "fairy": 0.5,
	},
	"steel": {
		"ice": 2, "rock": 2, "fairy": 2,
		"fire": 0.5, "water": 0.5, "electric": 0.5, "steel": 0.5,
	},
	"fairy": {
		"fighting": 2, "dragon": 2, "dark": 2,
		"fire": 0.5, "poison": 0.5, "steel": 0.5,
	},
}

// Effectiveness returns the product of the attack multiplier against each
// defending type. Unknown types count as neutral.
func Effectiveness(attack string, defend []string) float64 {
	multiplier := 1.0
	row := typeChart[attack]
	for _, d := range defend {
		if m, ok := row[d]; ok {
			multiplier *= m
		}
	}
	return multiplier
}

// Matchups splits every attacking type into weaknesses (>1), resistances (0<x<1)
// and immunities (==0) against the given defending types.
func Matchups(defend []string) (weaknesses, resistances, immunities map[string]float64) {
	weaknesses = make(map[string]float64)
	resistances = make(map[string]float64)
	immunities = make(map[string]float64)
	for _, attack := range Types {
		m := Effectiveness(attack, defend)
		switch {
		case m > 1:
			weaknesses[attack] = m
		case m == 0:
			immunities[attack] = m
		case m < 1:
			resistances[attack] = m
		}
	}
	return weaknesses, resistances, immunities
}

// IsType reports whether t belongs to the closed type set.
func IsType(t string) bool {
	_, ok := typeChart[t]
	return ok
}
