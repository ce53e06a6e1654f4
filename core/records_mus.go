package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for persisted records. Timestamps are stored as Unix
// microseconds. Coordinates are flattened to (present, lng, lat) on the wire
// so the stored form keeps plain longitude/latitude fields; the nullable
// Coordinates pointer is reconstructed on unmarshal.

var (
	// CacheKeyMUS serializes CacheKey values.
	CacheKeyMUS = cacheKeyMUS{}
	// PrivacyLevelMUS serializes PrivacyLevel values.
	PrivacyLevelMUS = privacyLevelMUS{}
	// UserLocationMUS serializes UserLocation records.
	UserLocationMUS = userLocationMUS{}
	// UserEmbeddingMUS serializes UserEmbedding records.
	UserEmbeddingMUS = userEmbeddingMUS{}

	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

var (
	_ mus.Serializer[CacheKey]      = CacheKeyMUS
	_ mus.Serializer[UserLocation]  = UserLocationMUS
	_ mus.Serializer[UserEmbedding] = UserEmbeddingMUS
)

type cacheKeyMUS struct{}

func (cacheKeyMUS) Marshal(v CacheKey, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (cacheKeyMUS) Unmarshal(bs []byte) (v CacheKey, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	return CacheKey(num), n, err
}

func (cacheKeyMUS) Size(v CacheKey) int {
	return varint.Uint64.Size(uint64(v))
}

func (cacheKeyMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type privacyLevelMUS struct{}

func (privacyLevelMUS) Marshal(v PrivacyLevel, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (privacyLevelMUS) Unmarshal(bs []byte) (v PrivacyLevel, n int, err error) {
	num, n, err := varint.Int.Unmarshal(bs)
	return PrivacyLevel(num), n, err
}

func (privacyLevelMUS) Size(v PrivacyLevel) int {
	return varint.Int.Size(int(v))
}

func (privacyLevelMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

type userLocationMUS struct{}

func (userLocationMUS) Marshal(v UserLocation, bs []byte) (n int) {
	n = ord.String.Marshal(v.UserID, bs)
	resolved := v.Coordinates != nil
	n += ord.Bool.Marshal(resolved, bs[n:])
	if resolved {
		n += raw.Float64.Marshal(v.Coordinates.Longitude, bs[n:])
		n += raw.Float64.Marshal(v.Coordinates.Latitude, bs[n:])
	}
	n += PrivacyLevelMUS.Marshal(v.Privacy, bs[n:])
	n += ord.String.Marshal(v.Timezone, bs[n:])
	n += raw.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (userLocationMUS) Unmarshal(bs []byte) (v UserLocation, n int, err error) {
	var n1 int
	v.UserID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var resolved bool
	resolved, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if resolved {
		var c Coordinates
		c.Longitude, n1, err = raw.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		c.Latitude, n1, err = raw.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v.Coordinates = &c
	}
	v.Privacy, n1, err = PrivacyLevelMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timezone, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (userLocationMUS) Size(v UserLocation) (size int) {
	size = ord.String.Size(v.UserID)
	size += ord.Bool.Size(v.Coordinates != nil)
	if v.Coordinates != nil {
		size += raw.Float64.Size(v.Coordinates.Longitude)
		size += raw.Float64.Size(v.Coordinates.Latitude)
	}
	size += PrivacyLevelMUS.Size(v.Privacy)
	size += ord.String.Size(v.Timezone)
	size += raw.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

func (s userLocationMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type userEmbeddingMUS struct{}

func (userEmbeddingMUS) Marshal(v UserEmbedding, bs []byte) (n int) {
	n = ord.String.Marshal(v.UserID, bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += ord.String.Marshal(v.ProfileText, bs[n:])
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	n += raw.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += raw.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (userEmbeddingMUS) Unmarshal(bs []byte) (v UserEmbedding, n int, err error) {
	var n1 int
	v.UserID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ProfileText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(micros).UTC()
	micros, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (userEmbeddingMUS) Size(v UserEmbedding) (size int) {
	size = ord.String.Size(v.UserID)
	size += vectorMUS.Size(v.Vector)
	size += ord.String.Size(v.ProfileText)
	size += metadataMUS.Size(v.Metadata)
	size += raw.Int64.Size(v.CreatedAt.UnixMicro())
	size += raw.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

func (s userEmbeddingMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
