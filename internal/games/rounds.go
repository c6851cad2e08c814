package games

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"quickplay_service/internal/wallet"
)

const DefaultPredictionWindow = 120 * time.Second

// RoundManager runs price-prediction rounds against the wallet service: the
// stake is debited when the round opens, the window runs against the feed,
// and the settlement completes when it closes. A round whose player
// disconnects or switches wallets mid-window is voided — the stake comes
// back and nothing is recorded.
type RoundManager struct {
	svc    *wallet.Service
	feed   *PriceFeed
	window time.Duration
	log    *logrus.Entry
}

// RoundResult reports one finished or voided round.
type RoundResult struct {
	Direction  Direction       `json:"direction"`
	Observed   Direction       `json:"observed,omitempty"`
	OpenPrice  float64         `json:"open_price"`
	ClosePrice float64         `json:"close_price,omitempty"`
	Voided     bool            `json:"voided"`
	Settlement wallet.Result   `json:"settlement"`
	Stake      decimal.Decimal `json:"stake"`
}

func NewRoundManager(svc *wallet.Service, feed *PriceFeed, window time.Duration, log *logrus.Entry) *RoundManager {
	if window <= 0 {
		window = DefaultPredictionWindow
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "prediction")
	}
	return &RoundManager{svc: svc, feed: feed, window: window, log: log}
}

// Play runs one full round and blocks until it settles or voids. ctx
// cancellation mid-window voids the round.
func (m *RoundManager) Play(ctx context.Context, direction Direction, stake decimal.Decimal) (RoundResult, error) {
	if direction != Up && direction != Down {
		return RoundResult{}, fmt.Errorf("%w: direction must be up or down", wallet.ErrInvalidInput)
	}

	player, err := m.svc.BeginStake(ctx, stake)
	if err != nil {
		return RoundResult{}, err
	}
	open := m.feed.Price()
	result := RoundResult{Direction: direction, OpenPrice: open, Stake: stake}

	timer := time.NewTimer(m.window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		m.void(player, stake)
		result.Voided = true
		return result, ctx.Err()
	case <-timer.C:
	}

	closePrice := m.feed.Price()
	observed := Down
	if closePrice > open {
		observed = Up
	}
	won := observed == direction
	payout := decimal.Zero
	if won {
		payout = stake.Mul(PredictionMultiplier)
	}

	settlement, err := m.svc.CompleteStake(ctx, player, wallet.GamePricePrediction, won, stake, payout)
	if err != nil {
		if errors.Is(err, wallet.ErrNotConnected) {
			m.void(player, stake)
			result.Voided = true
			return result, nil
		}
		return RoundResult{}, err
	}

	result.Observed = observed
	result.ClosePrice = closePrice
	result.Settlement = settlement
	return result, nil
}

func (m *RoundManager) void(player string, stake decimal.Decimal) {
	// Refund runs on a fresh context: the round's own context may already
	// be cancelled, and the stake must come back regardless.
	if err := m.svc.RefundStake(context.Background(), player, stake); err != nil {
		m.log.WithField("player", player).WithError(err).Warn("void refund failed")
	} else {
		m.log.WithField("player", player).Info("round voided, stake refunded")
	}
}
