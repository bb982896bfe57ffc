// Package store persists provider settings and fetch history in a bbolt file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSettings = []byte("settings")
	bucketFetches  = []byte("fetches")
)

// ErrNotFound is returned when a provider has no stored record.
var ErrNotFound = errors.New("record not found")

// Settings are user supplied credentials for a provider.
type Settings struct {
	ServerURL string    `json:"serverUrl"`
	APIKey    string    `json:"apiKey"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FetchRecord describes the most recent fetch for a provider.
type FetchRecord struct {
	ProviderID string    `json:"providerId"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Count      int       `json:"count"`
	Path       string    `json:"path"`
	Fallback   bool      `json:"fallback"`
	Error      string    `json:"error,omitempty"`
}

// Store wraps an open bbolt database.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures its buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSettings, bucketFetches} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSettings stores credentials for providerID, stamping UpdatedAt.
func (s *Store) SaveSettings(providerID string, settings Settings) (Settings, error) {
	settings.ServerURL = strings.TrimSpace(settings.ServerURL)
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.UpdatedAt = s.now().UTC()

	if err := s.put(bucketSettings, providerID, settings); err != nil {
		return Settings{}, fmt.Errorf("save %s settings: %w", providerID, err)
	}
	return settings, nil
}

// Settings returns stored credentials or ErrNotFound.
func (s *Store) Settings(providerID string) (Settings, error) {
	var out Settings
	if err := s.get(bucketSettings, providerID, &out); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// DeleteSettings removes stored credentials. Deleting a missing record is not an error.
func (s *Store) DeleteSettings(providerID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Delete(key(providerID))
	})
}

// RecordFetch stores rec as the latest fetch of its provider.
func (s *Store) RecordFetch(rec FetchRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = s.now().UTC()
	}
	if err := s.put(bucketFetches, rec.ProviderID, rec); err != nil {
		return fmt.Errorf("record %s fetch: %w", rec.ProviderID, err)
	}
	return nil
}

// LastFetch returns the latest fetch record or ErrNotFound.
func (s *Store) LastFetch(providerID string) (FetchRecord, error) {
	var out FetchRecord
	if err := s.get(bucketFetches, providerID, &out); err != nil {
		return FetchRecord{}, err
	}
	return out, nil
}

// Fetches returns the latest fetch record of every provider, ordered by provider id.
func (s *Store) Fetches() ([]FetchRecord, error) {
	var out []FetchRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFetches).ForEach(func(_, v []byte) error {
			var rec FetchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list fetches: %w", err)
	}
	return out, nil
}

func (s *Store) put(bucket []byte, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key(id), data)
	})
}

func (s *Store) get(bucket []byte, id string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, v)
	})
}

func key(id string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(id)))
}
