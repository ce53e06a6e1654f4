package badger

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/poiesic/vicinity/core"
)

// Geohash cell extents in km at the equator, indexed by precision.
// Heights are constant; widths shrink with cos(latitude).
var (
	cellWidthKm  = [...]float64{0, 5009.4, 1252.3, 156.5, 39.1, 4.89, 1.22, 0.153, 0.0382}
	cellHeightKm = [...]float64{0, 4992.6, 624.1, 156.0, 19.5, 4.89, 0.61, 0.153, 0.0191}
)

const maxCoverPrecision = 8

// coverCells returns the geohash cells whose union is guaranteed to contain
// every point within radiusKm of center: the center cell plus its eight
// neighbors, at the finest precision whose cell dimensions still exceed the
// radius. Returns ok=false when no precision can guarantee coverage (very
// large radii or centers near the poles); callers fall back to a full scan,
// which produces identical results at linear cost.
func coverCells(center core.Coordinates, radiusKm float64) (cells []string, ok bool) {
	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	precision := 0
	for p := maxCoverPrecision; p >= 1; p-- {
		if cellHeightKm[p] >= radiusKm && cellWidthKm[p]*cosLat >= radiusKm {
			precision = p
			break
		}
	}
	if precision == 0 {
		return nil, false
	}

	cell := geohash.EncodeWithPrecision(center.Latitude, center.Longitude, uint(precision))
	cells = append(cells, cell)
	cells = append(cells, geohash.Neighbors(cell)...)
	return cells, true
}
