package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"
)

// osrmProvider consulta un servidor OSRM propio.
type osrmProvider struct {
	baseURL string
	client  *http.Client
}

// NewOSRMProvider crea un adaptador para OSRM.
func NewOSRMProvider(baseURL string) RouteProvider {
	return &osrmProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *osrmProvider) Name() string { return "osrm" }

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

func (p *osrmProvider) Route(ctx context.Context, origin, destination domain.LatLng, mode domain.TravelMode) (*domain.RouteEstimate, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=polyline",
		p.baseURL, origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	var body osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.ErrRouteProvider.WithDetails(err.Error())
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, domain.ErrRouteProvider.WithDetails(fmt.Sprintf("osrm respondió code=%s", body.Code))
	}

	return &domain.RouteEstimate{
		DistanceMeters:  body.Routes[0].Distance,
		DurationSeconds: body.Routes[0].Duration,
		EncodedPolyline: body.Routes[0].Geometry,
		FetchedAt:       time.Now(),
		Provider:        p.Name(),
	}, nil
}
