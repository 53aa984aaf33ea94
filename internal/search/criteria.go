// Package search holds the client side listing view: facet index, filter
// criteria and the pure filter over fetched listings.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"easyhomes/internal/models"
)

// RentOptions are the standard rent ceilings offered to users.
var RentOptions = []float64{3000, 5000, 10000, 20000}

// Criteria is one immutable filter value. Empty fields and a nil MaxRent are inactive.
type Criteria struct {
	Query    string
	District string
	Pincode  string
	State    string
	MaxRent  *float64
}

// ParseRent turns a selected rent option into a ceiling. "" means no ceiling.
func ParseRent(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rent ceiling %q: %w", s, err)
	}
	return &v, nil
}

// WithQuery returns a copy of c with the free-text query replaced.
func (c Criteria) WithQuery(q string) Criteria { c.Query = q; return c }

// WithDistrict returns a copy of c with the district replaced.
func (c Criteria) WithDistrict(d string) Criteria { c.District = d; return c }

// WithPincode returns a copy of c with the pincode replaced.
func (c Criteria) WithPincode(p string) Criteria { c.Pincode = p; return c }

// WithState returns a copy of c with the state replaced.
func (c Criteria) WithState(s string) Criteria { c.State = s; return c }

// WithMaxRent returns a copy of c with the rent ceiling replaced.
func (c Criteria) WithMaxRent(ceiling *float64) Criteria {
	if ceiling != nil {
		v := *ceiling
		ceiling = &v
	}
	c.MaxRent = ceiling
	return c
}

// Matches reports whether home satisfies every active predicate.
func (c Criteria) Matches(home models.Home) bool {
	if c.Query != "" {
		haystack := strings.ToLower(strings.Join([]string{home.Title, home.Street, home.Town, home.State}, " "))
		if !strings.Contains(haystack, strings.ToLower(c.Query)) {
			return false
		}
	}
	if c.District != "" && home.Town != c.District {
		return false
	}
	if c.Pincode != "" && home.Pincode.String() != c.Pincode {
		return false
	}
	if c.State != "" && home.State != c.State {
		return false
	}
	if c.MaxRent != nil && home.RentPrice > *c.MaxRent {
		return false
	}
	return true
}

// Filter returns the listings matching c, in input order.
// It never modifies homes.
func Filter(homes []models.Home, c Criteria) []models.Home {
	out := make([]models.Home, 0, len(homes))
	for _, h := range homes {
		if c.Matches(h) {
			out = append(out, h)
		}
	}
	return out
}

// CanShowRenterInfo reports whether the "Renter Info" action is available for home.
func CanShowRenterInfo(home models.Home) bool {
	return home.Claimed()
}
