package catalog

import (
	"maps"
	"strings"
)

// builtinAliases maps localized and alternate spellings to canonical names.
// Best effort only: names missing here still resolve through substring search.
var builtinAliases = map[string]string{
	"bulbizarre": "bulbasaur", "bisasam": "bulbasaur", "fushigidane": "bulbasaur", "бульбазавр": "bulbasaur",
	"herbizarre": "ivysaur", "fushigisou": "ivysaur", "ивизавр": "ivysaur",
	"florizarre": "venusaur", "fushigibana": "venusaur", "венузавр": "venusaur",

	"salameche": "charmander", "salamèche": "charmander", "glumanda": "charmander", "hitokage": "charmander", "чармандер": "charmander",
	"reptincel": "charmeleon", "glutexo": "charmeleon", "lizardo": "charmeleon", "чармелеон": "charmeleon",
	"dracaufeu": "charizard", "glurak": "charizard", "lizardon": "charizard", "чаризард": "charizard",

	"carapuce": "squirtle", "schiggy": "squirtle", "zenigame": "squirtle", "сквиртл": "squirtle",
	"carabaffe": "wartortle", "schillok": "wartortle", "kameil": "wartortle", "вартортл": "wartortle",
	"tortank": "blastoise", "turtok": "blastoise", "kamex": "blastoise", "бластойз": "blastoise",

	"pikachuu": "pikachu", "ピカチュウ": "pikachu", "пикачу": "pikachu",
	"ライチュウ": "raichu", "райчу": "raichu",

	"rondoudou": "jigglypuff", "pummeluff": "jigglypuff", "purin": "jigglypuff", "プリン": "jigglypuff", "джиглипафф": "jigglypuff",
	"grodoudou": "wigglytuff", "knuddeluff": "wigglytuff", "pukurin": "wigglytuff", "プクリン": "wigglytuff",

	"miaouss": "meowth", "mauzi": "meowth", "nyarth": "meowth", "ニャース": "meowth", "мяут": "meowth",
	"persian": "persian", "snobilikat": "persian", "ペルシアン": "persian", "персиан": "persian",

	"psykokwak": "psyduck", "enton": "psyduck", "koduck": "psyduck", "コダック": "psyduck", "псидак": "psyduck",
	"akwakwak": "golduck", "entoron": "golduck", "ゴルダック": "golduck", "голдак": "golduck",

	"ronflex": "snorlax", "relaxo": "snorlax", "kabigon": "snorlax", "カビゴン": "snorlax", "снорлакс": "snorlax",

	"évoli": "eevee", "evoli": "eevee", "eievui": "eevee", "イーブイ": "eevee", "иви": "eevee",
	"aquali": "vaporeon", "aquana": "vaporeon", "showers": "vaporeon", "シャワーズ": "vaporeon", "вапореон": "vaporeon",
	"voltali": "jolteon", "blitza": "jolteon", "thunders": "jolteon", "サンダース": "jolteon", "джолтеон": "jolteon",
	"pyroli": "flareon", "flamara": "flareon", "booster": "flareon", "ブースター": "flareon", "флареон": "flareon",

	"ミュウ": "mew", "мью": "mew",
	"ミュウツー": "mewtwo", "мьюту": "mewtwo",
}

// Aliases resolves user-typed names to canonical names
type Aliases map[string]string

// DefaultAliases returns a copy of the built-in table
func DefaultAliases() Aliases {
	return maps.Clone(builtinAliases)
}

// Merge returns a copy of a with extra entries layered on top.
// Keys and values are lowercased.
func (a Aliases) Merge(extra map[string]string) Aliases {
	out := maps.Clone(a)
	if out == nil {
		out = make(Aliases, len(extra))
	}
	for k, v := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

// Resolve lowercases and trims text, then maps it through the table
func (a Aliases) Resolve(text string) string {
	term := strings.ToLower(strings.TrimSpace(text))
	if canonical, ok := a[term]; ok {
		return canonical
	}
	return term
}
