package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"plateful-agent/internal/domain"
)

const (
	searchRadiusMeters = 8000
	searchKeyword      = "food bank OR charity OR food donation"
	maxOrganizations   = 5
)

// PlacesAPI is the subset of the places service the lookup needs.
type PlacesAPI interface {
	// Geocode returns the best match for address; found is false when there is none.
	Geocode(ctx context.Context, address string) (point domain.Coordinates, found bool, err error)
	// NearbyPlaceIDs returns place IDs around point in the service's ranking order.
	NearbyPlaceIDs(ctx context.Context, point domain.Coordinates, radiusMeters uint, keyword string) ([]string, error)
	PlaceDetails(ctx context.Context, placeID string) (domain.Organization, error)
}

type LookupKind string

const (
	LookupFound         LookupKind = "found"
	LookupNoCoordinates LookupKind = "no_coordinates"
	LookupNoResults     LookupKind = "no_results"
	LookupFailed        LookupKind = "failed"
)

// LookupResult is the tagged outcome of a search. Err is set only for LookupFailed.
type LookupResult struct {
	Kind          LookupKind
	Location      string
	Organizations []domain.Organization
	Err           error
}

type OrganizationFinder struct {
	places PlacesAPI
}

func NewOrganizationFinder(places PlacesAPI) (*OrganizationFinder, error) {
	if places == nil {
		return nil, errors.New("usecase: places api must not be nil")
	}
	return &OrganizationFinder{places: places}, nil
}

// Find never returns an error; failures come back as LookupFailed.
func (f *OrganizationFinder) Find(ctx context.Context, location string) LookupResult {
	location = strings.TrimSpace(location)
	result := LookupResult{Location: location}

	point, found, err := f.places.Geocode(ctx, location)
	if err != nil {
		return f.failed(result, "geocode_error", err)
	}
	if !found {
		result.Kind = LookupNoCoordinates
		return result
	}

	ids, err := f.places.NearbyPlaceIDs(ctx, point, searchRadiusMeters, searchKeyword)
	if err != nil {
		return f.failed(result, "nearby_search_error", err)
	}
	if len(ids) > maxOrganizations {
		ids = ids[:maxOrganizations]
	}

	orgs := make([]domain.Organization, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		org, err := f.places.PlaceDetails(ctx, id)
		if err != nil {
			return f.failed(result, "place_details_error", err)
		}
		orgs = append(orgs, org.Normalized())
	}
	if len(orgs) == 0 {
		result.Kind = LookupNoResults
		return result
	}

	result.Kind = LookupFound
	result.Organizations = orgs
	return result
}

func (f *OrganizationFinder) failed(result LookupResult, reason string, err error) LookupResult {
	slog.Error("organization lookup failed", "location", result.Location, "reason", reason, "err", err)
	result.Kind = LookupFailed
	result.Err = newError(ErrorLookup, reason, err)
	return result
}
