package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"googlemaps.github.io/maps"

	"plateful-agent/internal/domain"
)

// tokenPayload is the JSON shape stored in the parameter store for the API key.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskVicinity,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskWebsite,
}

// Client wraps the Google Maps geocoding and places endpoints.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	mu         sync.Mutex
	mapsClient *maps.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client whose API key is read from the parameter store
// on first successful use and reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("places: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("places: parameter prefix must not be empty")
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/google-maps-token"
}

// resolveMaps builds the maps client on first success. Failures are not
// cached, so the next call retries the key fetch.
func (c *Client) resolveMaps(ctx context.Context) (*maps.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mapsClient != nil {
		return c.mapsClient, nil
	}
	key, err := fetchAPIKey(ctx, c.getter, c.tokenParameterName())
	if err != nil {
		return nil, err
	}
	opts := []maps.ClientOption{maps.WithAPIKey(key)}
	if c.httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(c.httpClient))
	}
	if c.baseURL != "" {
		opts = append(opts, maps.WithBaseURL(c.baseURL))
	}
	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("places: create maps client: %w", err)
	}
	c.mapsClient = mc
	return mc, nil
}

// Geocode returns the first geocoding match only.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	mc, err := c.resolveMaps(ctx)
	if err != nil {
		return domain.Coordinates{}, false, err
	}
	results, err := mc.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("places: geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, false, nil
	}
	loc := results[0].Geometry.Location
	return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, true, nil
}

func (c *Client) NearbyPlaceIDs(ctx context.Context, point domain.Coordinates, radiusMeters uint, keyword string) ([]string, error) {
	mc, err := c.resolveMaps(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := mc.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: point.Lat, Lng: point.Lng},
		Radius:   radiusMeters,
		Keyword:  keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("places: nearby search: %w", err)
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.PlaceID)
	}
	return ids, nil
}

// PlaceDetails returns the raw detail fields; empty strings mean the API omitted them.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (domain.Organization, error) {
	mc, err := c.resolveMaps(ctx)
	if err != nil {
		return domain.Organization{}, err
	}
	res, err := mc.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  detailFields,
	})
	if err != nil {
		return domain.Organization{}, fmt.Errorf("places: details %q: %w", placeID, err)
	}
	return domain.Organization{
		Name:    res.Name,
		Address: res.Vicinity,
		Phone:   res.FormattedPhoneNumber,
		Website: res.Website,
	}, nil
}

// fetchAPIKey accepts either {"token": "..."} or a bare key.
func fetchAPIKey(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("places: paramstore getter is nil")
	}
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("places: fetch api key from paramstore: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("places: unmarshal paramstore token value as JSON: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", errors.New("places: API key is empty")
	}
	return raw, nil
}
