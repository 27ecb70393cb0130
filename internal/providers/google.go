package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"
)

// googleProvider consulta Google Directions.
type googleProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGoogleProvider crea un adaptador para Google Directions.
func NewGoogleProvider(baseURL, apiKey string) RouteProvider {
	return &googleProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *googleProvider) Name() string { return "google" }

type googleDirectionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

func (p *googleProvider) Route(ctx context.Context, origin, destination domain.LatLng, mode domain.TravelMode) (*domain.RouteEstimate, error) {
	url := fmt.Sprintf("%s?origin=%f,%f&destination=%f,%f&mode=%s&key=%s",
		p.baseURL, origin.Lat, origin.Lng, destination.Lat, destination.Lng, mode, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	var body googleDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	if body.Status != "OK" || len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		return nil, domain.ErrRouteProvider.WithDetails(fmt.Sprintf("google respondió status=%s", body.Status))
	}

	leg := body.Routes[0].Legs[0]
	return &domain.RouteEstimate{
		DistanceMeters:  leg.Distance.Value,
		DurationSeconds: leg.Duration.Value,
		EncodedPolyline: body.Routes[0].OverviewPolyline.Points,
		FetchedAt:       time.Now(),
		Provider:        p.Name(),
	}, nil
}
