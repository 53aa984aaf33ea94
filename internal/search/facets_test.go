package search_test

import (
	"testing"

	"easyhomes/internal/models"
	"easyhomes/internal/search"

	"github.com/stretchr/testify/assert"
)

func TestBuildFacets(t *testing.T) {
	homes := append(sampleHomes(), models.Home{Title: "Another", Town: "Pune", State: "MH", Pincode: "411001"})

	f := search.BuildFacets(homes)
	assert.Equal(t, []string{"Pune", "Kolkata", "Shimla"}, f.Districts)
	assert.Equal(t, []string{"411001", "411045", "700016", "171001"}, f.Pincodes)
	assert.Equal(t, []string{"MH", "WB", "HP"}, f.States)
}

func TestBuildFacetsEmpty(t *testing.T) {
	f := search.BuildFacets(nil)
	assert.NotNil(t, f.Districts)
	assert.Empty(t, f.Districts)
	assert.Empty(t, f.Pincodes)
	assert.Empty(t, f.States)
}
