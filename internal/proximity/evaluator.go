package proximity

import (
	"fmt"
	"sort"

	"github.com/SalamaSafe/SS-Backend/internal/geo"
)

// Classify renders a zone as a human-readable warning. Severity 4 and up is
// high risk, 2-3 caution, below that a bare notice without the description.
func Classify(zone DangerZone) string {
	switch {
	case zone.SeverityLevel >= 4:
		return fmt.Sprintf("HIGH RISK: %s - %s", zone.LocationName, zone.Description)
	case zone.SeverityLevel >= 2:
		return fmt.Sprintf("CAUTION: %s - %s", zone.LocationName, zone.Description)
	default:
		return fmt.Sprintf("NOTICE: %s", zone.LocationName)
	}
}

// CheckResult is the combined proximity report for a point.
type CheckResult struct {
	NearbyPolice  []PoliceLocation `json:"nearby_police"`
	NearbyDangers []DangerZone     `json:"nearby_dangers"`
	Warnings      []string         `json:"warnings"`
}

// Check evaluates a point against both reference collections. Police are
// matched within the query radius; each active danger zone is matched within
// its own stored radius. The two radius semantics are deliberate: callers of
// the combined check care whether they are inside a zone's reported area,
// not an arbitrary circle around themselves. Boundaries are inclusive.
func Check(lat, lon, radius float64, zones []DangerZone, police []PoliceLocation) CheckResult {
	result := CheckResult{
		NearbyPolice:  []PoliceLocation{},
		NearbyDangers: []DangerZone{},
		Warnings:      []string{},
	}

	for _, p := range police {
		if geo.Distance(lat, lon, p.Latitude, p.Longitude) <= radius {
			result.NearbyPolice = append(result.NearbyPolice, p)
		}
	}

	for _, z := range zones {
		if !z.IsActive {
			continue
		}
		if geo.Distance(lat, lon, z.Latitude, z.Longitude) <= z.Radius {
			result.NearbyDangers = append(result.NearbyDangers, z)
			result.Warnings = append(result.Warnings, Classify(z))
		}
	}

	return result
}

// PoliceWithDistance is a police station plus its computed distance from the
// query point.
type PoliceWithDistance struct {
	PoliceLocation
	DistanceMeters float64 `json:"distance_meters"`
}

// DangerWithDistance is a danger zone plus its computed distance and warning.
type DangerWithDistance struct {
	DangerZone
	DistanceMeters float64 `json:"distance_meters"`
	Warning        string  `json:"warning"`
}

// NearbyPolice lists police stations within the query radius, ascending by
// distance.
func NearbyPolice(lat, lon, radius float64, police []PoliceLocation) []PoliceWithDistance {
	out := []PoliceWithDistance{}
	for _, p := range police {
		d := geo.Distance(lat, lon, p.Latitude, p.Longitude)
		if d <= radius {
			out = append(out, PoliceWithDistance{PoliceLocation: p, DistanceMeters: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out
}

// NearbyDangers lists active danger zones within the query radius (not the
// zones' own radii), ascending by distance.
func NearbyDangers(lat, lon, radius float64, zones []DangerZone) []DangerWithDistance {
	out := []DangerWithDistance{}
	for _, z := range zones {
		if !z.IsActive {
			continue
		}
		d := geo.Distance(lat, lon, z.Latitude, z.Longitude)
		if d <= radius {
			out = append(out, DangerWithDistance{DangerZone: z, DistanceMeters: d, Warning: Classify(z)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out
}
