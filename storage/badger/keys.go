package badger

import (
	"fmt"

	"github.com/mmcloughlin/geohash"
	"github.com/poiesic/vicinity/core"
)

// Key prefixes for different data types
const (
	locationPrefix  = "usrloc"
	locationGeoIdx  = "locgeo"
	embeddingPrefix = "usremb"

	// geoIndexPrecision is the geohash length stored in index keys. 12 chars
	// resolve to centimeters; coarser query prefixes select larger cells.
	geoIndexPrecision = 12
)

// makeLocationKey generates a key for a location record by user ID.
func makeLocationKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", locationPrefix, userID))
}

// makeGeoIndexKey generates a composite key for the spatial index.
// Format: prefix:geohash:userID. The geohash is a prefix-ordered encoding of
// the coordinates, so a scan over prefix:cellPrefix visits exactly the users
// inside that cell.
func makeGeoIndexKey(c core.Coordinates, userID string) []byte {
	hash := geohash.EncodeWithPrecision(c.Latitude, c.Longitude, geoIndexPrecision)
	return []byte(fmt.Sprintf("%s:%s:%s", locationGeoIdx, hash, userID))
}

// makePartialGeoIndexKey generates a partial key for scanning one geohash cell.
func makePartialGeoIndexKey(cell string) []byte {
	return []byte(fmt.Sprintf("%s:%s", locationGeoIdx, cell))
}

// userIDFromGeoIndexKey extracts the user ID suffix from a spatial index key.
func userIDFromGeoIndexKey(key []byte) string {
	// prefix + ':' + hash + ':'
	offset := len(locationGeoIdx) + 1 + geoIndexPrecision + 1
	if len(key) <= offset {
		return ""
	}
	return string(key[offset:])
}

// makeEmbeddingKey generates a key for an embedding record by user ID.
func makeEmbeddingKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", embeddingPrefix, userID))
}
