package catalog

import (
	"sort"
	"strings"
)

// ItemRef points at a catalog item without its detail payload
type ItemRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Stat is one labelled value of an item's stat block
type Stat struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ItemDetail is the normalized record kept in the cache and shown to users.
// Identity is ID; several names may resolve to the same ID.
type ItemDetail struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	ImageURL   string   `json:"image_url,omitempty"`
	Mass       int      `json:"mass"`
	Size       int      `json:"size"`
	Stats      []Stat   `json:"stats"`
	Traits     []string `json:"traits"`
}

// HasCategory checks membership case-insensitively
func (d ItemDetail) HasCategory(category string) bool {
	for _, c := range d.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// HasTrait checks membership case-insensitively
func (d ItemDetail) HasTrait(trait string) bool {
	for _, t := range d.Traits {
		if strings.EqualFold(t, trait) {
			return true
		}
	}
	return false
}

// StatValue returns the value for label, or 0 when absent
func (d ItemDetail) StatValue(label string) int {
	for _, s := range d.Stats {
		if strings.EqualFold(s.Label, label) {
			return s.Value
		}
	}
	return 0
}

// StatTotal sums the stat block
func (d ItemDetail) StatTotal() int {
	total := 0
	for _, s := range d.Stats {
		total += s.Value
	}
	return total
}

// namedResource is the upstream {name, url} pair
type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// listResponse is the paginated list endpoint
type listResponse struct {
	Count   int       `json:"count"`
	Results []ItemRef `json:"results"`
}

// refIndex is the cached form of every flattened ref list
type refIndex struct {
	Results []ItemRef `json:"results"`
}

// detailResponse holds the parts of the detail endpoint we keep
type detailResponse struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Height int    `json:"height"`
	Types  []struct {
		Slot int           `json:"slot"`
		Type namedResource `json:"type"`
	} `json:"types"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault *string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     namedResource `json:"stat"`
	} `json:"stats"`
	Abilities []struct {
		Slot    int           `json:"slot"`
		Ability namedResource `json:"ability"`
	} `json:"abilities"`
}

// categoryResponse wraps each ref one level deeper than the list endpoint
type categoryResponse struct {
	Pokemon []struct {
		Slot    int     `json:"slot"`
		Pokemon ItemRef `json:"pokemon"`
	} `json:"pokemon"`
}

// speciesResponse lists the variants of one base entry
type speciesResponse struct {
	Varieties []struct {
		IsDefault bool    `json:"is_default"`
		Pokemon   ItemRef `json:"pokemon"`
	} `json:"varieties"`
}

// normalize keeps only the fields of the data model
func (r detailResponse) normalize() ItemDetail {
	types := r.Types
	sort.SliceStable(types, func(i, j int) bool { return types[i].Slot < types[j].Slot })

	detail := ItemDetail{
		ID:         r.ID,
		Name:       strings.ToLower(r.Name),
		Mass:       r.Weight,
		Size:       r.Height,
		Categories: make([]string, 0, len(types)),
		Stats:      make([]Stat, 0, len(r.Stats)),
		Traits:     make([]string, 0, len(r.Abilities)),
	}

	for _, t := range types {
		detail.Categories = append(detail.Categories, t.Type.Name)
	}
	for _, s := range r.Stats {
		detail.Stats = append(detail.Stats, Stat{Label: s.Stat.Name, Value: s.BaseStat})
	}
	for _, a := range r.Abilities {
		detail.Traits = append(detail.Traits, a.Ability.Name)
	}

	switch {
	case r.Sprites.Other.OfficialArtwork.FrontDefault != nil:
		detail.ImageURL = *r.Sprites.Other.OfficialArtwork.FrontDefault
	case r.Sprites.FrontDefault != nil:
		detail.ImageURL = *r.Sprites.FrontDefault
	}

	return detail
}

// flatten unwraps the category index into plain refs
func (r categoryResponse) flatten() []ItemRef {
	refs := make([]ItemRef, 0, len(r.Pokemon))
	for _, p := range r.Pokemon {
		refs = append(refs, p.Pokemon)
	}
	return refs
}

// refs returns the variants with the default form first
func (r speciesResponse) refs() []ItemRef {
	refs := make([]ItemRef, 0, len(r.Varieties))
	for _, v := range r.Varieties {
		if v.IsDefault {
			refs = append(refs, v.Pokemon)
		}
	}
	for _, v := range r.Varieties {
		if !v.IsDefault {
			refs = append(refs, v.Pokemon)
		}
	}
	return refs
}
