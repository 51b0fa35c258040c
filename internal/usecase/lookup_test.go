package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"plateful-agent/internal/domain"
)

type fakePlaces struct {
	point      domain.Coordinates
	found      bool
	geocodeErr error
	ids        []string
	nearbyErr  error
	details    map[string]domain.Organization
	detailsErr error

	geocoded     []string
	radius       uint
	keyword      string
	detailsCalls []string
}

func (f *fakePlaces) Geocode(_ context.Context, address string) (domain.Coordinates, bool, error) {
	f.geocoded = append(f.geocoded, address)
	return f.point, f.found, f.geocodeErr
}

func (f *fakePlaces) NearbyPlaceIDs(_ context.Context, _ domain.Coordinates, radiusMeters uint, keyword string) ([]string, error) {
	f.radius = radiusMeters
	f.keyword = keyword
	return f.ids, f.nearbyErr
}

func (f *fakePlaces) PlaceDetails(_ context.Context, placeID string) (domain.Organization, error) {
	f.detailsCalls = append(f.detailsCalls, placeID)
	if f.detailsErr != nil {
		return domain.Organization{}, f.detailsErr
	}
	if org, ok := f.details[placeID]; ok {
		return org, nil
	}
	return domain.Organization{Name: "Org " + placeID}, nil
}

func newTestFinder(t *testing.T, p PlacesAPI) *OrganizationFinder {
	t.Helper()
	f, err := NewOrganizationFinder(p)
	require.NoError(t, err)
	return f
}

func expectUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewOrganizationFinder_ValidatesDependency(t *testing.T) {
	_, err := NewOrganizationFinder(nil)
	require.Error(t, err)
}

func TestFind_HappyPath_NormalizesFields(t *testing.T) {
	places := &fakePlaces{
		found: true,
		ids:   []string{"p1"},
		details: map[string]domain.Organization{
			"p1": {Name: "Feeding India", Address: "Saket"},
		},
	}
	res := newTestFinder(t, places).Find(context.Background(), "  Delhi ")

	require.Equal(t, LookupFound, res.Kind)
	require.Equal(t, "Delhi", res.Location)
	require.Equal(t, []string{"Delhi"}, places.geocoded)
	require.Equal(t, uint(8000), places.radius)
	require.Equal(t, "food bank OR charity OR food donation", places.keyword)
	require.Equal(t, []domain.Organization{{
		Name:    "Feeding India",
		Address: "Saket",
		Phone:   "Not available",
		Website: "Not available",
	}}, res.Organizations)
	require.NoError(t, res.Err)
}

func TestFind_CapsAtFiveInRankingOrder(t *testing.T) {
	ids := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		ids = append(ids, fmt.Sprintf("p%d", i))
	}
	places := &fakePlaces{found: true, ids: ids}
	res := newTestFinder(t, places).Find(context.Background(), "Delhi")

	require.Equal(t, LookupFound, res.Kind)
	require.Len(t, res.Organizations, 5)
	require.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, places.detailsCalls)
	for i, org := range res.Organizations {
		require.Equal(t, fmt.Sprintf("Org p%d", i+1), org.Name)
	}
}

func TestFind_SkipsMissingPlaceIDWithinFirstFive(t *testing.T) {
	places := &fakePlaces{found: true, ids: []string{"p1", "", "p3", "p4", "p5", "p6"}}
	res := newTestFinder(t, places).Find(context.Background(), "Delhi")

	require.Equal(t, LookupFound, res.Kind)
	require.Equal(t, []string{"p1", "p3", "p4", "p5"}, places.detailsCalls)
	require.Len(t, res.Organizations, 4)
}

func TestFind_NoCoordinates(t *testing.T) {
	places := &fakePlaces{found: false}
	res := newTestFinder(t, places).Find(context.Background(), "Atlantis")

	require.Equal(t, LookupNoCoordinates, res.Kind)
	require.Empty(t, res.Organizations)
	require.NoError(t, res.Err)
}

func TestFind_NoResults(t *testing.T) {
	for _, ids := range [][]string{nil, {"", ""}} {
		places := &fakePlaces{found: true, ids: ids}
		res := newTestFinder(t, places).Find(context.Background(), "Delhi")
		require.Equal(t, LookupNoResults, res.Kind)
		require.Empty(t, places.detailsCalls)
	}
}

func TestFind_APIErrorsAreTagged(t *testing.T) {
	cases := []struct {
		name   string
		places *fakePlaces
		reason string
	}{
		{name: "geocode", places: &fakePlaces{geocodeErr: errors.New("denied")}, reason: "geocode_error"},
		{name: "nearby", places: &fakePlaces{found: true, nearbyErr: errors.New("quota")}, reason: "nearby_search_error"},
		{name: "details", places: &fakePlaces{found: true, ids: []string{"p1"}, detailsErr: errors.New("timeout")}, reason: "place_details_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := newTestFinder(t, tc.places).Find(context.Background(), "Delhi")
			require.Equal(t, LookupFailed, res.Kind)
			require.Empty(t, res.Organizations)
			expectUsecaseError(t, res.Err, ErrorLookup, tc.reason)
		})
	}
}
