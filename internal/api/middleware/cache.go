package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/infrastructure/observability"
)

// CacheConfig holds cache settings for a route
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware caches JSON responses for read-heavy hospital routes.
// Queue and stream routes are never cached: countdown math and check-in
// codes must always reflect the store.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return &CacheMiddleware{
		cache:   cache,
		metrics: metrics,
		routeConfigs: map[string]CacheConfig{
			"/api/hospitals/search":  {TTLSeconds: 120, Enabled: true},
			"/api/hospitals/suggest": {TTLSeconds: 180, Enabled: true},
			"/api/hospitals":         {TTLSeconds: 60, Enabled: true}, // prefix match
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			if m.metrics != nil {
				m.metrics.CacheHitCount.Add(r.Context(), 1)
			}
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		if m.metrics != nil {
			m.metrics.CacheMissCount.Add(r.Context(), 1)
		}
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(recorder, r)

		// Only successful JSON responses are worth keeping
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache response")
			}
		}
	})
}

func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	if config, ok := m.routeConfigs[path]; ok {
		return config
	}
	for route, config := range m.routeConfigs {
		if strings.HasPrefix(path, route+"/") {
			return config
		}
	}
	return CacheConfig{}
}

// generateCacheKey hashes the path and query so arbitrarily long search
// queries still produce fixed-size keys.
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	sum := sha256.Sum256([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("http:%s", hex.EncodeToString(sum[:16]))
}

// responseRecorder captures the response body while passing it through
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rec *responseRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (rec *responseRecorder) Write(data []byte) (int, error) {
	rec.body.Write(data)
	return rec.ResponseWriter.Write(data)
}
