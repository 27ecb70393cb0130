package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"
)

// orsProvider consulta OpenRouteService (https://openrouteservice.org).
type orsProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewORSProvider crea un adaptador para OpenRouteService.
func NewORSProvider(baseURL, apiKey string) RouteProvider {
	return &orsProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *orsProvider) Name() string { return "ors" }

type orsDirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func (p *orsProvider) Route(ctx context.Context, origin, destination domain.LatLng, mode domain.TravelMode) (*domain.RouteEstimate, error) {
	url := fmt.Sprintf("%s/v2/directions/driving-car?start=%f,%f&end=%f,%f",
		p.baseURL, origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrRouteProvider.WithDetails(fmt.Sprintf("ors respondió %d", resp.StatusCode))
	}

	var body orsDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	if len(body.Routes) == 0 {
		return nil, domain.ErrRouteProvider.WithDetails("ors no devolvió rutas")
	}

	return &domain.RouteEstimate{
		DistanceMeters:  body.Routes[0].Summary.Distance,
		DurationSeconds: body.Routes[0].Summary.Duration,
		EncodedPolyline: body.Routes[0].Geometry,
		FetchedAt:       time.Now(),
		Provider:        p.Name(),
	}, nil
}
