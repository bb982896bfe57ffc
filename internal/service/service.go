// Package service ties providers, settings, enrichment and publishing together
// behind the operations exposed by the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/config"
	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/internal/logger"
	"github.com/Adda-Baaj/arthik-khobor/internal/store"
	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

// MaxNewsLimit caps the number of items a single fetch may ask for.
const MaxNewsLimit = 100

// ErrUnknownProvider is returned for provider ids without a registered fetcher.
var ErrUnknownProvider = errors.New("unknown provider")

// SettingsStore persists provider credentials and fetch history.
type SettingsStore interface {
	Settings(providerID string) (store.Settings, error)
	SaveSettings(providerID string, settings store.Settings) (store.Settings, error)
	DeleteSettings(providerID string) error
	RecordFetch(rec store.FetchRecord) error
	LastFetch(providerID string) (store.FetchRecord, error)
	Fetches() ([]store.FetchRecord, error)
}

// Enricher fills placeholder fields from article pages.
type Enricher interface {
	Enrich(ctx context.Context, items []domain.NewsItem) []domain.NewsItem
}

// Dispatcher publishes fetched items.
type Dispatcher interface {
	Dispatch(ctx context.Context, providerID string, items []domain.NewsItem, fetchedAt time.Time) (int, error)
}

// Service runs news fetches for configured providers.
type Service struct {
	cfg        *config.Config
	fetchers   providers.FetcherRegistry
	store      SettingsStore
	enricher   Enricher
	dispatcher Dispatcher
	log        logger.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithEnricher enables summary enrichment for requests that ask for it.
func WithEnricher(e Enricher) Option { return func(s *Service) { s.enricher = e } }

// WithDispatcher enables publishing for requests that ask for it.
func WithDispatcher(d Dispatcher) Option { return func(s *Service) { s.dispatcher = d } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service. store may be nil, in which case settings are read
// from cfg only and fetches are not recorded.
func New(cfg *config.Config, fetchers providers.FetcherRegistry, st SettingsStore, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		fetchers: fetchers,
		store:    st,
		log:      logger.NopLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchRequest describes one news fetch.
type FetchRequest struct {
	ProviderID string
	Limit      int
	Query      string
	Enrich     bool
	Publish    bool
}

// FetchResult is the outcome of a successful fetch.
type FetchResult struct {
	ProviderID   string            `json:"provider"`
	FetchedAt    time.Time         `json:"fetchedAt"`
	Path         string            `json:"path"`
	Fallback     bool              `json:"fallback"`
	Degradations []string          `json:"degradations,omitempty"`
	Published    int               `json:"published"`
	PublishError string            `json:"publishError,omitempty"`
	Items        []domain.NewsItem `json:"news"`
}

// FetchNews fetches news from one provider. Configuration and upstream
// failures are returned as errors; parse failures yield fallback items.
func (s *Service) FetchNews(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	cfg, fetcher, err := s.resolve(req.ProviderID)
	if err != nil {
		return nil, err
	}

	limit := s.limit(req.Limit)
	fetchedAt := s.now()

	batch, err := fetcher.Fetch(ctx, cfg, providers.Request{Limit: limit, Query: strings.TrimSpace(req.Query)})
	if err != nil {
		s.record(store.FetchRecord{ProviderID: cfg.ID, FetchedAt: fetchedAt, Error: err.Error()})
		s.log.WarnObj("news fetch failed", "fetch_error", map[string]any{
			"provider_id": cfg.ID,
			"error":       err.Error(),
		})
		return nil, err
	}

	items := batch.Items
	if (req.Enrich || s.cfg.EnrichSummaries) && s.enricher != nil {
		items = s.enricher.Enrich(ctx, items)
	}

	res := &FetchResult{
		ProviderID:   cfg.ID,
		FetchedAt:    fetchedAt,
		Path:         batch.Path,
		Fallback:     batch.Fallback,
		Degradations: batch.Degradations,
		Items:        items,
	}

	if req.Publish && s.dispatcher != nil {
		sent, err := s.dispatcher.Dispatch(ctx, cfg.ID, items, fetchedAt)
		res.Published = sent
		if err != nil {
			res.PublishError = err.Error()
		}
	}

	s.record(store.FetchRecord{
		ProviderID: cfg.ID,
		FetchedAt:  fetchedAt,
		Count:      len(items),
		Path:       batch.Path,
		Fallback:   batch.Fallback,
	})
	s.log.InfoObj("news fetched", "fetch_done", map[string]any{
		"provider_id": cfg.ID,
		"count":       len(items),
		"path":        batch.Path,
		"fallback":    batch.Fallback,
		"published":   res.Published,
	})
	return res, nil
}

// Status reports upstream health for a provider. Providers without a live
// check report whether they are configured and how their last fetch went.
func (s *Service) Status(ctx context.Context, providerID string) ([]domain.ServiceStatus, error) {
	cfg, fetcher, err := s.resolve(providerID)
	if err != nil {
		return nil, err
	}
	if checker, ok := fetcher.(providers.StatusChecker); ok {
		return checker.Status(ctx, cfg), nil
	}

	now := s.now()
	status := domain.ServiceStatus{
		ID:          1,
		Name:        cfg.Name,
		Status:      domain.StatusActive,
		Message:     fmt.Sprintf("%d sources configured", countNonEmpty(cfg.Feeds)),
		Details:     map[string]any{"sources": cfg.Feeds},
		LastUpdated: now,
	}
	if countNonEmpty(cfg.Feeds) == 0 {
		status.Status = domain.StatusError
		status.Message = "No sources configured"
	}
	if last, ok := s.lastFetch(cfg.ID); ok {
		status.LastUpdated = last.FetchedAt
		if last.Error != "" {
			status.Status = domain.StatusError
			status.Message = "Last fetch failed"
			status.Details["error"] = last.Error
		}
	}
	return []domain.ServiceStatus{status}, nil
}

// ProviderOverview summarizes one provider for dashboards.
type ProviderOverview struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Configured  bool               `json:"configured"`
	Source      string             `json:"settingsSource"`
	LastFetch   *store.FetchRecord `json:"lastFetch,omitempty"`
	LastUpdated string             `json:"lastUpdated"`
}

// Overview lists every registered provider with its configuration state.
func (s *Service) Overview() []ProviderOverview {
	now := s.now()
	fetches := s.fetchesByProvider()
	ids := s.fetchers.IDs()
	out := make([]ProviderOverview, 0, len(ids))
	for _, id := range ids {
		cfg, source := s.providerConfig(id)
		ov := ProviderOverview{
			ID:          id,
			Name:        cfg.Name,
			Configured:  configured(cfg),
			Source:      source,
			LastUpdated: "never",
		}
		if last, ok := fetches[cfg.ID]; ok {
			ov.LastFetch = &last
			ov.LastUpdated = RelativeTime(last.FetchedAt, now)
		}
		out = append(out, ov)
	}
	return out
}

// Settings returns the effective credentials of a provider and where they came from.
func (s *Service) Settings(providerID string) (providers.Provider, string, error) {
	if _, _, err := s.resolve(providerID); err != nil {
		return providers.Provider{}, "", err
	}
	cfg, source := s.providerConfig(providerID)
	return cfg, source, nil
}

// SaveSettings persists credentials for a credentialed provider.
func (s *Service) SaveSettings(providerID string, settings store.Settings) (store.Settings, error) {
	cfg, _, err := s.resolve(providerID)
	if err != nil {
		return store.Settings{}, err
	}
	if s.store == nil {
		return store.Settings{}, errors.New("settings store is not available")
	}
	if cfg.ID == providers.ProviderRSS || cfg.ID == providers.ProviderSitemap {
		return store.Settings{}, fmt.Errorf("%s credentials: %w", cfg.ID, providers.ErrNotSupported)
	}

	var missing []string
	if strings.TrimSpace(settings.ServerURL) == "" {
		missing = append(missing, "server_url")
	}
	if strings.TrimSpace(settings.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if len(missing) > 0 {
		return store.Settings{}, &providers.ConfigurationError{Provider: cfg.ID, Missing: missing}
	}
	return s.store.SaveSettings(cfg.ID, settings)
}

// ResetSettings removes stored credentials so config defaults apply again.
func (s *Service) ResetSettings(providerID string) error {
	cfg, _, err := s.resolve(providerID)
	if err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	return s.store.DeleteSettings(cfg.ID)
}

func (s *Service) resolve(providerID string) (providers.Provider, providers.Fetcher, error) {
	id := strings.ToLower(strings.TrimSpace(providerID))
	if id == "" {
		id = providers.ProviderDappier
	}
	cfg, _ := s.providerConfig(id)
	fetcher, err := s.fetchers.FetcherFor(cfg)
	if err != nil {
		return providers.Provider{}, nil, fmt.Errorf("%w %q", ErrUnknownProvider, id)
	}
	return cfg, fetcher, nil
}

// providerConfig merges stored settings over config defaults.
func (s *Service) providerConfig(id string) (providers.Provider, string) {
	cfg := s.cfg.Provider(id)
	source := "config"
	if s.store == nil {
		return cfg, source
	}
	stored, err := s.store.Settings(cfg.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WarnObj("settings lookup failed", "settings_error", map[string]any{
				"provider_id": cfg.ID,
				"error":       err.Error(),
			})
		}
		return cfg, source
	}
	if stored.ServerURL != "" {
		cfg.ServerURL = stored.ServerURL
		source = "store"
	}
	if stored.APIKey != "" {
		cfg.APIKey = stored.APIKey
		source = "store"
	}
	return cfg, source
}

func (s *Service) limit(requested int) int {
	if requested <= 0 {
		requested = s.cfg.DefaultNewsLimit
	}
	if requested <= 0 {
		requested = 10
	}
	return min(requested, MaxNewsLimit)
}

func (s *Service) record(rec store.FetchRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordFetch(rec); err != nil {
		s.log.WarnObj("fetch record not saved", "store_error", map[string]any{
			"provider_id": rec.ProviderID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) lastFetch(id string) (store.FetchRecord, bool) {
	if s.store == nil {
		return store.FetchRecord{}, false
	}
	rec, err := s.store.LastFetch(id)
	if err != nil {
		return store.FetchRecord{}, false
	}
	return rec, true
}

// fetchesByProvider loads every stored fetch record in one read.
func (s *Service) fetchesByProvider() map[string]store.FetchRecord {
	if s.store == nil {
		return nil
	}
	records, err := s.store.Fetches()
	if err != nil {
		s.log.WarnObj("fetch history lookup failed", "fetch_history_error", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	out := make(map[string]store.FetchRecord, len(records))
	for _, rec := range records {
		out[rec.ProviderID] = rec
	}
	return out
}

// configured mirrors the checks each fetcher performs before any network call.
func configured(cfg providers.Provider) bool {
	switch cfg.ID {
	case providers.ProviderRSS, providers.ProviderSitemap:
		return countNonEmpty(cfg.Feeds) > 0
	default:
		return config.Credentials{ServerURL: cfg.ServerURL, APIKey: cfg.APIKey}.Configured()
	}
}

func countNonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// RelativeTime renders t relative to now, e.g. "5 minutes ago".
func RelativeTime(t, now time.Time) string {
	mins := int(now.Sub(t) / time.Minute)
	switch {
	case mins < 1:
		return "just now"
	case mins == 1:
		return "1 minute ago"
	case mins < 60:
		return fmt.Sprintf("%d minutes ago", mins)
	}

	hours := mins / 60
	switch {
	case hours == 1:
		return "1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := hours / 24
	switch {
	case days == 1:
		return "yesterday"
	case days < 30:
		return fmt.Sprintf("%d days ago", days)
	}
	return t.Format("2006-01-02")
}

// MaskKey hides all but the last four characters of an api key.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
