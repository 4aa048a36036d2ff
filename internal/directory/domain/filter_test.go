package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleListings() []*Listing {
	mk := func(name, category, neighborhood, description string) *Listing {
		return &Listing{
			Name:         name,
			Category:     category,
			Neighborhood: neighborhood,
			Description:  description,
		}
	}
	return []*Listing{
		mk("Baby Gear Gemach", "baby", "Rechavia", "Strollers and cribs"),
		mk("Simcha Tables", "events", "Katamon", "Folding tables and chairs for events"),
		mk("Medical Equipment", "medical", "Rechavia", "Crutches, wheelchairs and baby scales"),
	}
}

func TestFilterText(t *testing.T) {
	listings := sampleListings()

	// Case-insensitive substring over name OR description.
	got := Filter{Text: "BABY"}.Apply(listings)
	assert.Len(t, got, 2)
	assert.Equal(t, "Baby Gear Gemach", got[0].Name)
	assert.Equal(t, "Medical Equipment", got[1].Name)

	got = Filter{Text: "folding tables"}.Apply(listings)
	assert.Len(t, got, 1)
	assert.Equal(t, "Simcha Tables", got[0].Name)

	got = Filter{Text: "nonexistent"}.Apply(listings)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterCategoryAndNeighborhood(t *testing.T) {
	listings := sampleListings()

	got := Filter{Category: "medical"}.Apply(listings)
	assert.Len(t, got, 1)

	got = Filter{Neighborhood: "Rechavia"}.Apply(listings)
	assert.Len(t, got, 2)

	// Constraints are ANDed.
	got = Filter{Text: "baby", Neighborhood: "Rechavia", Category: "baby"}.Apply(listings)
	assert.Len(t, got, 1)
	assert.Equal(t, "Baby Gear Gemach", got[0].Name)
}

func TestFilterAllSentinel(t *testing.T) {
	listings := sampleListings()

	got := Filter{Category: FilterAll, Neighborhood: "All"}.Apply(listings)
	assert.Len(t, got, len(listings))

	got = Filter{}.Apply(listings)
	assert.Len(t, got, len(listings))
}

func TestFilterIdempotent(t *testing.T) {
	listings := sampleListings()
	f := Filter{Text: "baby", Neighborhood: "Rechavia"}

	once := f.Apply(listings)
	twice := f.Apply(once)
	assert.Equal(t, once, twice)
}
