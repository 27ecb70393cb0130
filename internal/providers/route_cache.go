package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/unisabana/wheels-core/internal/cache"
	"github.com/unisabana/wheels-core/internal/domain"

	"golang.org/x/sync/singleflight"
)

// RouteCache memoiza RouteProvider.Route en cache y colapsa los misses
// concurrentes de la misma llave con singleflight, de modo que N requests
// simultáneas por el mismo origen/destino disparan una sola llamada al
// proveedor externo (spec §4.4 "Route cache").
type RouteCache struct {
	provider RouteProvider
	cache    cache.Cache
	ttl      time.Duration
	group    singleflight.Group
}

// NewRouteCache crea un RouteCache que envuelve provider.
func NewRouteCache(provider RouteProvider, c cache.Cache, ttl time.Duration) *RouteCache {
	return &RouteCache{provider: provider, cache: c, ttl: ttl}
}

func (rc *RouteCache) Route(ctx context.Context, origin, destination domain.LatLng, mode domain.TravelMode) (*domain.RouteEstimate, error) {
	key := routeCacheKey(origin, destination, mode)

	if cached, err := rc.cache.Get(ctx, key); err == nil && cached != "" {
		var estimate domain.RouteEstimate
		if err := json.Unmarshal([]byte(cached), &estimate); err == nil {
			return &estimate, nil
		}
	}

	result, err, _ := rc.group.Do(key, func() (interface{}, error) {
		estimate, err := rc.provider.Route(ctx, origin, destination, mode)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(estimate); err == nil {
			_ = rc.cache.Set(ctx, key, string(data), rc.ttl)
		}
		return estimate, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.RouteEstimate), nil
}

// routeCacheKey normaliza origen, destino y modo a 5 decimales (~1.1m de
// precisión) para que coordenadas equivalentes compartan llave de cache.
func routeCacheKey(origin, destination domain.LatLng, mode domain.TravelMode) string {
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f:%s",
		origin.Lat, origin.Lng, destination.Lat, destination.Lng, mode)
}
