package geo

import (
	"math"
	"sort"

	"github.com/wellmind/assessment-api/internal/model"
)

// Filter specifies a proximity query over a candidate list.
type Filter struct {
	// Type restricts candidates to one professional type when non-empty.
	Type model.ProfessionalType
	// Center is the query origin.
	Center Point
	// RadiusKM is the inclusive distance cutoff.
	RadiusKM float64
	// Limit caps the result when > 0. The assessment flow caps at 10;
	// standalone directory queries leave it unset and page externally.
	Limit int
}

// Nearby filters candidates to those with known coordinates within
// RadiusKM of Center (inclusive), sorted ascending by distance. Candidates
// missing either coordinate, or not matching the type filter, are skipped.
// DistanceKM on the returned entries is rounded to 0.1 km; filtering and
// ordering use the unrounded distance.
func Nearby(candidates []model.Professional, f Filter) []model.NearbyProfessional {
	type ranked struct {
		prof model.Professional
		dist float64
	}

	var within []ranked
	for _, p := range candidates {
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if !p.HasCoordinates() {
			continue
		}
		d := HaversineKM(f.Center, Point{Lat: *p.Latitude, Lng: *p.Longitude})
		if d <= f.RadiusKM {
			within = append(within, ranked{prof: p, dist: d})
		}
	}

	sort.Slice(within, func(i, j int) bool {
		if within[i].dist != within[j].dist {
			return within[i].dist < within[j].dist
		}
		return within[i].prof.ID < within[j].prof.ID
	})

	if f.Limit > 0 && len(within) > f.Limit {
		within = within[:f.Limit]
	}

	out := make([]model.NearbyProfessional, 0, len(within))
	for _, r := range within {
		out = append(out, model.NearbyProfessional{
			Professional: r.prof,
			DistanceKM:   math.Round(r.dist*10) / 10,
		})
	}
	return out
}
