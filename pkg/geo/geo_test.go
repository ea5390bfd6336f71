package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerhub/offer-portal/internal/model"
)

func TestDistance_KnownCities(t *testing.T) {
	// Dubai (25.2048, 55.2708) to Abu Dhabi (24.4539, 54.3773) is roughly 123 km.
	d := Distance(25.2048, 55.2708, 24.4539, 54.3773)
	assert.InDelta(t, 123, d, 5)
}

func TestDistance_SamePoint(t *testing.T) {
	assert.Zero(t, Distance(25.0, 55.0, 25.0, 55.0))
}

func TestFilterNearby_SortsByDistance(t *testing.T) {
	offers := []model.Offer{
		{ID: "far", Locations: []model.Location{{Name: "Far", Lat: 25.30, Lng: 55.40}}},
		{ID: "near", Locations: []model.Location{{Name: "Near", Lat: 25.2050, Lng: 55.2710}}},
	}

	got := FilterNearby(offers, 25.2048, 55.2708, 50)

	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "far", got[1].ID)
	assert.Less(t, got[0].DistanceKm, got[1].DistanceKm)
}

func TestFilterNearby_ExcludesOutOfRadius(t *testing.T) {
	offers := []model.Offer{
		{ID: "close", Locations: []model.Location{{Lat: 25.21, Lng: 55.28}}},
		{ID: "remote", Locations: []model.Location{{Lat: 24.45, Lng: 54.38}}}, // ~120km away
	}

	got := FilterNearby(offers, 25.2048, 55.2708, 10)

	require.Len(t, got, 1)
	assert.Equal(t, "close", got[0].ID)
}

func TestFilterNearby_OfferListedOncePerNearestLocation(t *testing.T) {
	offers := []model.Offer{
		{ID: "multi", Locations: []model.Location{
			{Name: "Branch A", Lat: 25.21, Lng: 55.28},
			{Name: "Branch B", Lat: 25.2050, Lng: 55.2710},
		}},
	}

	got := FilterNearby(offers, 25.2048, 55.2708, 10)

	require.Len(t, got, 1)
	require.NotNil(t, got[0].NearestLocation)
	assert.Equal(t, "Branch B", got[0].NearestLocation.Name)
}

func TestFilterNearby_SkipsOffersWithoutCoordinates(t *testing.T) {
	offers := []model.Offer{
		{ID: "no-locations"},
		{ID: "zero-coords", Locations: []model.Location{{Name: "Unset"}}},
	}

	got := FilterNearby(offers, 25.2048, 55.2708, 10)
	assert.Empty(t, got)
}
