package search

import "easyhomes/internal/models"

// Facets are the distinct filter options present in a listing set, in first-seen order.
type Facets struct {
	Districts []string
	Pincodes  []string
	States    []string
}

// BuildFacets indexes the distinct towns, pincodes and states of homes.
// Empty values are skipped, unlike a plain set of every field value: an empty
// option would select nothing, since an empty criteria field is inactive.
func BuildFacets(homes []models.Home) Facets {
	f := Facets{Districts: []string{}, Pincodes: []string{}, States: []string{}}
	seenDistrict := make(map[string]struct{})
	seenPincode := make(map[string]struct{})
	seenState := make(map[string]struct{})
	for _, h := range homes {
		f.Districts = appendDistinct(f.Districts, seenDistrict, h.Town)
		f.Pincodes = appendDistinct(f.Pincodes, seenPincode, h.Pincode.String())
		f.States = appendDistinct(f.States, seenState, h.State)
	}
	return f
}

func appendDistinct(list []string, seen map[string]struct{}, v string) []string {
	if v == "" {
		return list
	}
	if _, ok := seen[v]; ok {
		return list
	}
	seen[v] = struct{}{}
	return append(list, v)
}
