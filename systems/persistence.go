package systems

import (
	"encoding/json"
	"fmt"

	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/shared/fuse"
	"github.com/quasilyte/gdata"
	"github.com/rs/zerolog"
)

const (
	tuningKey = "fuse_tuning"
	statsKey  = "stats"
)

// FuseTuning is the player-adjusted part of the fuse configuration.
type FuseTuning struct {
	PullRate   float64 `json:"pullRate"`
	JitterRate float64 `json:"jitterRate"`
	MaxPull    float64 `json:"maxPull"`
}

// Stats are the lifetime detonation counters.
type Stats struct {
	Detonations      int `json:"detonations"`
	ChainDetonations int `json:"chainDetonations"`
}

// ItemStore is the subset of *gdata.Manager the Store needs.
type ItemStore interface {
	LoadItem(itemKey string) ([]byte, error)
	SaveItem(itemKey string, data []byte) error
}

// Store persists tuning and stats as JSON items. A nil *Store, or one with no
// backing ItemStore, loads defaults and drops writes.
type Store struct {
	items ItemStore
	log   zerolog.Logger
	stats Stats
}

// OpenStore opens the gdata manager for appName. On failure it returns a
// Store that keeps everything in memory, along with the error.
func OpenStore(appName string, logger zerolog.Logger) (*Store, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("persistence unavailable, using defaults")
		return NewStore(nil, logger), fmt.Errorf("open gdata: %w", err)
	}
	return NewStore(m, logger), nil
}

// NewStore wraps an item store. Saved stats are read once here.
func NewStore(items ItemStore, logger zerolog.Logger) *Store {
	s := &Store{items: items, log: logger}
	if loaded, ok := s.load(statsKey, &Stats{}); ok {
		s.stats = *loaded.(*Stats)
	}
	return s
}

// LoadTuning returns the saved tuning, or the configured defaults.
func (s *Store) LoadTuning() FuseTuning {
	defaults := FuseTuning{
		PullRate:   cfg.Fuse.PullRate,
		JitterRate: cfg.Fuse.JitterRate,
		MaxPull:    cfg.Fuse.MaxPull,
	}
	loaded, ok := s.load(tuningKey, &FuseTuning{})
	if !ok {
		return defaults
	}
	t := *loaded.(*FuseTuning)
	check := fuse.Config{JitterRate: t.JitterRate, PullRate: t.PullRate, MaxPull: t.MaxPull}
	if err := check.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("discarding invalid saved tuning")
		return defaults
	}
	return t
}

// SaveTuning writes t.
func (s *Store) SaveTuning(t FuseTuning) error {
	return s.save(tuningKey, t)
}

// Stats returns the current counters.
func (s *Store) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return s.stats
}

// RecordDetonation bumps the counters and saves them.
func (s *Store) RecordDetonation(chained bool) {
	if s == nil {
		return
	}
	s.stats.Detonations++
	if chained {
		s.stats.ChainDetonations++
	}
	if err := s.save(statsKey, s.stats); err != nil {
		s.log.Warn().Err(err).Msg("could not save stats")
	}
}

func (s *Store) load(key string, into any) (any, bool) {
	if s == nil || s.items == nil {
		return nil, false
	}
	data, err := s.items.LoadItem(key)
	if err != nil {
		s.log.Warn().Err(err).Str("item", key).Msg("could not load item")
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	if err := json.Unmarshal(data, into); err != nil {
		s.log.Warn().Err(err).Str("item", key).Msg("could not parse item")
		return nil, false
	}
	return into, true
}

func (s *Store) save(key string, v any) error {
	if s == nil || s.items == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.items.SaveItem(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
