package wallet

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"quickplay_service/internal/store"
)

const DefaultHistoryCap = 50

// DefaultInitialBalance is the fixed endowment every wallet starts with.
var DefaultInitialBalance = decimal.NewFromFloat(2.0)

// Service owns the session, the account directory, the ledger and the game
// history. All mutation goes through its operations; collaborators hold a
// reference and render its observable state. A single mutex makes each
// settlement one critical section, so debit, draw, credit and record admit
// no externally observable intermediate state.
type Service struct {
	repo           store.Repository
	provider       Provider
	log            *logrus.Entry
	initialBalance decimal.Decimal
	historyCap     int

	mu      sync.Mutex
	session Session
	balance decimal.Decimal
	dir     *directory
	history []GameRecord
}

type Option func(*Service)

func WithProvider(provider Provider) Option {
	return func(s *Service) { s.provider = provider }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) { s.log = log }
}

func WithInitialBalance(balance decimal.Decimal) Option {
	return func(s *Service) { s.initialBalance = balance }
}

func WithHistoryCap(n int) Option {
	return func(s *Service) { s.historyCap = n }
}

// New builds the state service and loads any previously persisted state.
// Load failures degrade to empty defaults; New never fails on a corrupt
// store.
func New(ctx context.Context, repo store.Repository, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		initialBalance: DefaultInitialBalance,
		historyCap:     DefaultHistoryCap,
		balance:        decimal.Zero,
		dir:            newDirectory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "wallet")
	}
	s.loadState(ctx)
	return s
}

// Session reports the current connection state.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Balance returns the active wallet's spendable balance. The second return
// is false when no wallet is connected.
func (s *Service) Balance() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return decimal.Zero, false
	}
	return s.balance, true
}

// Account returns the directory entry for address without creating one.
func (s *Service) Account(address string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.dir.get(address)
	if !ok {
		return Account{}, ErrUnknownAccount
	}
	return account, nil
}

// Profile returns the active wallet's profile.
func (s *Service) Profile() (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return Profile{}, ErrNotConnected
	}
	return s.dir.profiles[s.session.Address], nil
}

// UpdateProfile replaces the active wallet's profile.
func (s *Service) UpdateProfile(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return ErrNotConnected
	}
	if err := s.dir.setProfile(s.session.Address, Profile{Username: username, Password: password}); err != nil {
		return err
	}
	s.persistProfilesLocked(ctx)
	return nil
}

// Stats returns the active wallet's aggregated statistics.
func (s *Service) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return Stats{}, ErrNotConnected
	}
	return *s.dir.stats[s.session.Address], nil
}

// Leaderboard lists every known account ordered by descending wagered
// volume. Equal volumes keep first-connect order.
func (s *Service) Leaderboard() []Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.rank()
}

// Settle runs one full settlement: validate, debit the stake, draw the
// outcome, credit the payout on a win and record the result. The draw is
// seeded from crypto/rand.
func (s *Service) Settle(ctx context.Context, game Game, stake decimal.Decimal) (Result, error) {
	seed, err := NewSeed()
	if err != nil {
		return Result{}, err
	}
	return s.SettleWithSeed(ctx, game, stake, seed)
}

// SettleWithSeed is Settle with a caller-supplied seed. The same seed and
// game always produce the same draw.
func (s *Service) SettleWithSeed(ctx context.Context, game Game, stake decimal.Decimal, seed int64) (Result, error) {
	if err := game.Validate(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return Result{}, ErrNotConnected
	}
	if err := s.debitLocked(ctx, stake); err != nil {
		return Result{}, err
	}

	rng := rand.New(rand.NewSource(seed))
	won := game.Draw(rng)

	payout := decimal.Zero
	if won {
		payout = stake.Mul(game.Multiplier())
		s.creditLocked(ctx, payout)
	}
	record := s.recordLocked(ctx, game.Type(), s.session.Address, won, stake)

	s.log.WithFields(logrus.Fields{
		"game":   game.Type(),
		"player": s.session.Address,
		"stake":  stake,
		"won":    won,
		"payout": payout,
	}).Info("settlement complete")

	return Result{Record: record, Won: won, Payout: payout, Balance: s.balance}, nil
}

// BeginStake validates and debits the stake for a windowed settlement and
// returns the staking wallet's address. The caller finishes the settlement
// with CompleteStake or voids it with RefundStake.
func (s *Service) BeginStake(ctx context.Context, stake decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return "", ErrNotConnected
	}
	if err := s.debitLocked(ctx, stake); err != nil {
		return "", err
	}
	return s.session.Address, nil
}

// CompleteStake finishes a windowed settlement begun with BeginStake. It
// fails with ErrNotConnected when player no longer owns the active session,
// leaving the refund decision to the caller.
func (s *Service) CompleteStake(ctx context.Context, player string, gameType GameType, won bool, stake, payout decimal.Decimal) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected || s.session.Address != player {
		return Result{}, ErrNotConnected
	}
	if won && payout.IsPositive() {
		s.creditLocked(ctx, payout)
	}
	record := s.recordLocked(ctx, gameType, player, won, stake)
	return Result{Record: record, Won: won, Payout: payout, Balance: s.balance}, nil
}

// RefundStake returns a debited stake to player's directory entry without
// recording a game. It works whether or not the player still owns the
// session, so abandoned rounds can be voided after a disconnect.
func (s *Service) RefundStake(ctx context.Context, player string, stake decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Connected && s.session.Address == player {
		s.creditLocked(ctx, stake)
		return nil
	}
	balance, ok := s.dir.balances[player]
	if !ok {
		return ErrUnknownAccount
	}
	s.dir.balances[player] = balance.Add(stake)
	s.persistBalancesLocked(ctx)
	return nil
}

// NewSeed draws a settlement seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
