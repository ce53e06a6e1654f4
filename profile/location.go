package profile

import (
	"context"
	"errors"

	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/geocode"
	"github.com/poiesic/vicinity/storage"
)

// LocationUpdate describes a location write. Coordinates take priority over
// Place when both are set; Place is geocoded through the configured resolver.
type LocationUpdate struct {
	UserID      string
	Coordinates *core.Coordinates
	Place       string
	Privacy     core.PrivacyLevel
	Timezone    string
}

// LocationOutcome reports how a location update was applied.
type LocationOutcome struct {
	Location *core.UserLocation

	// Geocoded is true when the stored coordinates came from resolving Place.
	Geocoded bool

	// DisplayName is the resolver's canonical name for the place, when geocoded.
	DisplayName string

	// RetainedPrior is true when geocoding failed and the previously stored
	// coordinates were kept. The privacy level and timezone are still updated.
	RetainedPrior bool

	// Warning carries the geocoding failure when RetainedPrior is true.
	Warning error
}

// UpdateLocation stores a user's location. Raw coordinates are stored as
// given; a place name is geocoded first. When geocoding fails the update does
// not error: any previously stored coordinates are retained, the privacy level
// and timezone are still applied, and the failure is reported in the outcome.
func (p *Pipeline) UpdateLocation(ctx context.Context, update *LocationUpdate) (*LocationOutcome, error) {
	if update == nil || update.UserID == "" {
		return nil, core.ErrEmptyUserID
	}
	if err := core.ValidatePrivacyLevel(update.Privacy); err != nil {
		return nil, err
	}

	outcome := &LocationOutcome{}

	loc := &core.UserLocation{
		UserID:   update.UserID,
		Privacy:  update.Privacy,
		Timezone: update.Timezone,
	}

	switch {
	case update.Coordinates != nil:
		if err := core.ValidateCoordinates(*update.Coordinates); err != nil {
			return nil, err
		}
		c := *update.Coordinates
		loc.Coordinates = &c

	case update.Place != "":
		if p.resolver == nil {
			return nil, ErrNoPosition
		}
		result, err := p.resolver.Resolve(ctx, update.Place)
		if err != nil {
			if !errors.Is(err, geocode.ErrUnresolved) {
				return nil, err
			}
			prior, perr := p.priorCoordinates(ctx, update.UserID)
			if perr != nil {
				return nil, perr
			}
			loc.Coordinates = prior
			outcome.RetainedPrior = true
			outcome.Warning = err
			p.logger.Warn("geocoding failed, retaining prior coordinates",
				"user_id", update.UserID, "place", update.Place, "err", err)
		} else {
			c := result.Coordinates
			loc.Coordinates = &c
			outcome.Geocoded = true
			outcome.DisplayName = result.DisplayName
		}

	default:
		return nil, ErrNoPosition
	}

	stored, err := p.locationRepo.Upsert(ctx, loc)
	if err != nil {
		return nil, err
	}

	outcome.Location = stored
	return outcome, nil
}

// RemoveLocation deletes a user's stored location. Removing an absent
// location is not an error.
func (p *Pipeline) RemoveLocation(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	err := p.locationRepo.Delete(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (p *Pipeline) priorCoordinates(ctx context.Context, userID string) (*core.Coordinates, error) {
	prior, err := p.locationRepo.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.Coordinates == nil {
		return nil, nil
	}
	c := *prior.Coordinates
	return &c, nil
}
