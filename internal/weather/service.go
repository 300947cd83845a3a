package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

const (
	defaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	cacheKey        = "weather:lastSnapshot"
)

// Snapshot is one observed set of local conditions.
type Snapshot struct {
	LocationName string    `json:"locationName"`
	Description  string    `json:"description"`
	Temperature  float64   `json:"temperature"`
	FeelsLike    float64   `json:"feelsLike"`
	Humidity     int       `json:"humidity"`
	Icon         string    `json:"icon,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Units        string    `json:"units"`
}

// Cache is the device-store slice the service persists snapshots through.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Service fetches local conditions from OpenWeather and keeps the last
// snapshot cached on device so the banner renders instantly on relaunch.
// Cached snapshots serve until the TTL lapses; Refresh always bypasses.
type Service struct {
	cfg        config.WeatherConfig
	cache      Cache
	logg       *logger.Logger
	httpClient *http.Client
	endpoint   string
	now        func() time.Time

	mu     sync.RWMutex
	latest *Snapshot
}

// Option configures optional service behavior.
type Option func(*Service)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithEndpoint overrides the OpenWeather endpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Service) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the weather service. cache may be nil to skip the
// device cache entirely.
func NewService(cfg config.WeatherConfig, cache Cache, logg *logger.Logger, opts ...Option) *Service {
	if cfg.Units == "" {
		cfg.Units = "imperial"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	service := &Service{
		cfg:        cfg,
		cache:      cache,
		logg:       logg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   defaultEndpoint,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service
}

// Current returns a fresh-enough snapshot: the in-memory one if within TTL,
// else the device cache, else a live fetch.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	if snapshot := s.Latest(); snapshot != nil && !s.stale(snapshot) {
		return snapshot, nil
	}

	if cached := s.readCache(ctx); cached != nil {
		s.install(cached)
		if !s.stale(cached) {
			return cached, nil
		}
	}

	return s.Refresh(ctx)
}

// Refresh bypasses the cache and fetches live conditions.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	lat, lon, ok := s.cfg.ParseFallbackCoords()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "no location available for weather")
	}
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "weather api key not configured")
	}

	snapshot, err := s.fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	s.install(snapshot)
	s.writeCache(ctx, snapshot)
	return snapshot, nil
}

// Latest returns the in-memory snapshot without any freshness check.
func (s *Service) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil
	}
	copied := *s.latest
	return &copied
}

// AssistantPayload shapes the latest snapshot for the assistant, or nil when
// nothing has loaded yet.
func (s *Service) AssistantPayload() *types.AssistantWeatherPayload {
	snapshot := s.Latest()
	if snapshot == nil {
		return nil
	}
	return &types.AssistantWeatherPayload{
		Description:  snapshot.Description,
		Temperature:  snapshot.Temperature,
		FeelsLike:    snapshot.FeelsLike,
		Units:        snapshot.Units,
		LocationName: snapshot.LocationName,
	}
}

func (s *Service) stale(snapshot *Snapshot) bool {
	return s.now().Sub(snapshot.UpdatedAt) > s.cfg.CacheTTL
}

func (s *Service) install(snapshot *Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()
}

func (s *Service) readCache(ctx context.Context) *Snapshot {
	if s.cache == nil {
		return nil
	}
	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil || !ok {
		return nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil || snapshot.UpdatedAt.IsZero() {
		return nil
	}
	return &snapshot
}

func (s *Service) writeCache(ctx context.Context, snapshot *Snapshot) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, string(raw)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "persisting weather cache failed")
	}
}

func (s *Service) fetch(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("units", s.cfg.Units)
	query.Set("appid", s.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build weather request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "reaching weather service")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeServer,
			fmt.Sprintf("weather service answered %d", resp.StatusCode))
	}

	var payload struct {
		Name    string `json:"name"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeServer, err, "decode weather response")
	}

	snapshot := &Snapshot{
		LocationName: payload.Name,
		Description:  "Unknown conditions",
		Temperature:  payload.Main.Temp,
		FeelsLike:    payload.Main.FeelsLike,
		Humidity:     payload.Main.Humidity,
		UpdatedAt:    s.now(),
		Units:        s.cfg.Units,
	}
	if snapshot.LocationName == "" {
		snapshot.LocationName = "Your area"
	}
	if snapshot.FeelsLike == 0 {
		snapshot.FeelsLike = payload.Main.Temp
	}
	if len(payload.Weather) > 0 {
		if desc := titleCase(payload.Weather[0].Description); desc != "" {
			snapshot.Description = desc
		}
		snapshot.Icon = payload.Weather[0].Icon
	}
	return snapshot, nil
}

func titleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
