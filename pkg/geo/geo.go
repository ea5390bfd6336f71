// Package geo provides haversine distance math for the nearby-offers
// search.
package geo

import (
	"math"
	"sort"

	"github.com/offerhub/offer-portal/internal/model"
)

const earthRadiusKm = 6371

// Distance returns the great-circle distance in kilometers between two
// coordinates using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// FilterNearby returns the offers that have at least one location within
// radiusKm of the given point, annotated with the distance to the nearest
// such location and sorted nearest first. An offer appears at most once
// even when several of its locations are in range.
func FilterNearby(offers []model.Offer, lat, lng, radiusKm float64) []model.NearbyOffer {
	nearby := []model.NearbyOffer{}
	for i := range offers {
		offer := offers[i]
		var nearest *model.Location
		best := math.MaxFloat64
		for j := range offer.Locations {
			loc := offer.Locations[j]
			if loc.Lat == 0 && loc.Lng == 0 {
				continue
			}
			d := Distance(lat, lng, loc.Lat, loc.Lng)
			if d <= radiusKm && d < best {
				best = d
				nearest = &offer.Locations[j]
			}
		}
		if nearest != nil {
			nearby = append(nearby, model.NearbyOffer{
				Offer:           offer,
				DistanceKm:      math.Round(best*100) / 100,
				NearestLocation: nearest,
			})
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby
}
