package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/internal/logger"
)

// Logger is the structured logger publishers report through.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}

// Publisher delivers news events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Event is the envelope sent for every published news item.
type Event struct {
	ID         string          `json:"id"`
	ProviderID string          `json:"provider_id"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Item       domain.NewsItem `json:"item"`
}

// NewEvent wraps item in an envelope with a fresh id.
func NewEvent(providerID string, item domain.NewsItem, fetchedAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		FetchedAt:  fetchedAt.UTC(),
		Item:       item,
	}
}

// attributes are the routing keys attached to queue messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"provider_id": e.ProviderID,
		"sentiment":   string(e.Item.Sentiment),
		"impact":      string(e.Item.Impact),
		"sectors":     strings.Join(e.Item.Sectors, ","),
	}
}

func encodeEvent(evt Event) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// Dispatcher fans events out to a set of publishers, honoring each one's filter.
type Dispatcher struct {
	targets []target
	log     Logger
}

type target struct {
	pub    Publisher
	filter Filter
}

// NewDispatcher builds publishers for every enabled config in reg.
func NewDispatcher(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) (*Dispatcher, error) {
	log = ensureLogger(log)
	d := &Dispatcher{log: log}
	for _, cfg := range cfgs {
		if !cfg.EnabledValue() {
			continue
		}
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		d.targets = append(d.targets, target{pub: pub, filter: cfg.Filter})
	}
	return d, nil
}

// NewStaticDispatcher dispatches to already built publishers without filters.
func NewStaticDispatcher(log Logger, pubs ...Publisher) *Dispatcher {
	d := &Dispatcher{log: ensureLogger(log)}
	for _, p := range pubs {
		if p != nil {
			d.targets = append(d.targets, target{pub: p})
		}
	}
	return d
}

// Len reports how many publishers are attached.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.targets)
}

// Dispatch publishes every item as its own event. It keeps going after
// failures and returns them joined; sent counts successful deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, providerID string, items []domain.NewsItem, fetchedAt time.Time) (sent int, err error) {
	if d.Len() == 0 || len(items) == 0 {
		return 0, nil
	}

	var errs []error
	for _, item := range items {
		evt := NewEvent(providerID, item, fetchedAt)
		for _, t := range d.targets {
			if !t.filter.Allows(evt) {
				continue
			}
			if err := t.pub.Publish(ctx, evt); err != nil {
				d.log.WarnObj("event publish failed", "publish_error", map[string]any{
					"publisher_id": t.pub.ID(),
					"event_id":     evt.ID,
					"error":        err.Error(),
				})
				errs = append(errs, fmt.Errorf("publisher %s: %w", t.pub.ID(), err))
				continue
			}
			sent++
		}
	}

	d.log.InfoObj("events dispatched", "publish_done", map[string]any{
		"provider_id": providerID,
		"items":       len(items),
		"sent":        sent,
		"failed":      len(errs),
	})
	return sent, errors.Join(errs...)
}

// Close releases publishers that hold connections.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, t := range d.targets {
		if c, ok := t.pub.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
