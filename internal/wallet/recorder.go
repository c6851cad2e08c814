package wallet

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// recordLocked appends one settlement to the history and folds it into the
// player's stats. Both updates happen under the same lock hold and persist
// together, keeping the denormalized stats consistent with the log.
func (s *Service) recordLocked(ctx context.Context, gameType GameType, player string, won bool, stake decimal.Decimal) GameRecord {
	result := OutcomeLost
	if won {
		result = OutcomeWon
	}
	record := GameRecord{
		ID:        uuid.NewString(),
		Type:      gameType,
		Player:    player,
		Result:    result,
		Amount:    stake,
		Timestamp: time.Now().UnixMilli(),
	}

	s.history = append([]GameRecord{record}, s.history...)
	if len(s.history) > s.historyCap {
		s.history = s.history[:s.historyCap]
	}
	// recordLocked callers guarantee the player exists.
	_ = s.dir.recordOutcome(player, won, stake)

	s.persistHistoryLocked(ctx)
	s.persistStatsLocked(ctx)
	return record
}

// History yields the most recent records, newest first. The sequence is
// restartable: each iteration snapshots the log, so re-ranging observes
// settlements recorded since the previous pass. limit <= 0 yields the whole
// retained log.
func (s *Service) History(limit int) iter.Seq[GameRecord] {
	return s.historySeq(limit, func(GameRecord) bool { return true })
}

// HistoryFor is History filtered to one player.
func (s *Service) HistoryFor(player string, limit int) iter.Seq[GameRecord] {
	return s.historySeq(limit, func(r GameRecord) bool { return r.Player == player })
}

func (s *Service) historySeq(limit int, keep func(GameRecord) bool) iter.Seq[GameRecord] {
	return func(yield func(GameRecord) bool) {
		s.mu.Lock()
		snapshot := make([]GameRecord, len(s.history))
		copy(snapshot, s.history)
		s.mu.Unlock()

		n := 0
		for _, record := range snapshot {
			if !keep(record) {
				continue
			}
			if limit > 0 && n >= limit {
				return
			}
			if !yield(record) {
				return
			}
			n++
		}
	}
}
