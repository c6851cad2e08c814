package wallet

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"quickplay_service/internal/store"
)

// pair round-trips one map entry through the [key, value] JSON tuple layout
// the persisted documents use for every map.
type pair[T any] struct {
	Key   string
	Value T
}

func (p pair[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

func (p *pair[T]) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	if raw[1] == nil {
		var zero T
		p.Value = zero
		return nil
	}
	return json.Unmarshal(raw[1], &p.Value)
}

// loadState reads the four persisted documents into memory. Missing or
// malformed documents fall back to empty defaults; a corrupt document never
// fails startup.
func (s *Service) loadState(ctx context.Context) {
	var history []GameRecord
	if s.loadDocument(ctx, store.KeyGameHistory, &history) {
		s.history = history
	}

	var stats []pair[Stats]
	if s.loadDocument(ctx, store.KeyPlayerStats, &stats) {
		for _, entry := range stats {
			if entry.Key == "" || s.dir.has(entry.Key) {
				continue
			}
			value := entry.Value
			value.Address = entry.Key
			s.dir.stats[entry.Key] = &value
			s.dir.order = append(s.dir.order, entry.Key)
		}
	}

	var balances []pair[decimal.Decimal]
	if s.loadDocument(ctx, store.KeyPlayerBalances, &balances) {
		for _, entry := range balances {
			if entry.Key == "" || !s.dir.has(entry.Key) {
				continue
			}
			s.dir.balances[entry.Key] = entry.Value
		}
	}

	var profiles []pair[Profile]
	if s.loadDocument(ctx, store.KeyUserProfiles, &profiles) {
		for _, entry := range profiles {
			if entry.Key == "" || !s.dir.has(entry.Key) {
				continue
			}
			s.dir.profiles[entry.Key] = entry.Value
		}
	}

	// Accounts persisted before a balance write exist with stats only; they
	// re-enter with the initial endowment, same as a first connect.
	for _, address := range s.dir.order {
		if _, ok := s.dir.balances[address]; !ok {
			s.dir.balances[address] = s.initialBalance
		}
		if _, ok := s.dir.profiles[address]; !ok {
			s.dir.profiles[address] = defaultProfile(address)
		}
	}
}

func (s *Service) loadDocument(ctx context.Context, key string, out any) bool {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.WithField("key", key).WithError(err).Warn("load failed, using defaults")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.WithField("key", key).WithError(err).Warn("corrupt document, using defaults")
		return false
	}
	return true
}

func (s *Service) persistHistoryLocked(ctx context.Context) {
	history := s.history
	if history == nil {
		history = []GameRecord{}
	}
	s.putDocument(ctx, store.KeyGameHistory, history)
}

func (s *Service) persistStatsLocked(ctx context.Context) {
	entries := make([]pair[Stats], 0, len(s.dir.order))
	for _, address := range s.dir.order {
		entries = append(entries, pair[Stats]{Key: address, Value: *s.dir.stats[address]})
	}
	s.putDocument(ctx, store.KeyPlayerStats, entries)
}

func (s *Service) persistBalancesLocked(ctx context.Context) {
	entries := make([]pair[decimal.Decimal], 0, len(s.dir.order))
	for _, address := range s.dir.order {
		entries = append(entries, pair[decimal.Decimal]{Key: address, Value: s.dir.balances[address]})
	}
	s.putDocument(ctx, store.KeyPlayerBalances, entries)
}

func (s *Service) persistProfilesLocked(ctx context.Context) {
	entries := make([]pair[Profile], 0, len(s.dir.order))
	for _, address := range s.dir.order {
		entries = append(entries, pair[Profile]{Key: address, Value: s.dir.profiles[address]})
	}
	s.putDocument(ctx, store.KeyUserProfiles, entries)
}

func (s *Service) putDocument(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.WithField("key", key).WithError(err).Warn("encode failed, document not persisted")
		return
	}
	if err := s.repo.Put(ctx, key, raw); err != nil {
		s.log.WithField("key", key).WithError(err).Warn("write failed, document not persisted")
	}
}
