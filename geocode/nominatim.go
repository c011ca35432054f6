// Package geocode resolves coordinates to a display address. Geocoding is
// best effort: callers substitute models.UnknownAddress on any failure and
// never fail a submission over it.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Geocoder resolves a coordinate pair to a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// Nominatim is the OpenStreetMap reverse-geocoding client.
type Nominatim struct {
	BaseURL string
	Client  *http.Client
}

func NewNominatim() *Nominatim {
	return &Nominatim{
		BaseURL: "https://nominatim.openstreetmap.org",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?lat=%s&lon=%s&format=json",
		n.BaseURL,
		url.QueryEscape(fmt.Sprintf("%g", lat)),
		url.QueryEscape(fmt.Sprintf("%g", lng)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Briddhi/1.0")

	resp, err := n.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.DisplayName == "" {
		return "", fmt.Errorf("nominatim returned no display name")
	}
	return payload.DisplayName, nil
}
