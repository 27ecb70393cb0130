package providers

import "github.com/unisabana/wheels-core/internal/config"

// NewFromConfig construye el RouteProvider seleccionado por
// cfg.RouteProvider (spec §4.4 "Route providers").
func NewFromConfig(cfg *config.Config) RouteProvider {
	switch cfg.RouteProvider {
	case "osrm":
		return NewOSRMProvider(cfg.OSRMBaseURL)
	case "google":
		return NewGoogleProvider(cfg.GoogleBaseURL, cfg.GoogleAPIKey)
	default:
		return NewORSProvider(cfg.ORSBaseURL, cfg.ORSAPIKey)
	}
}
