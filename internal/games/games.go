// Package games holds the three settlement procedures: pure outcome rules
// consuming a seeded draw, plus the simulated price signal the prediction
// market settles against.
package games

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"quickplay_service/internal/wallet"
)

type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

var (
	coinFlipMultiplier = decimal.NewFromInt(2)
	diceRollMultiplier = decimal.NewFromInt(5)

	// PredictionMultiplier is the documented payout for a won prediction
	// round. 2x matches the coin flip's even-odds risk profile.
	PredictionMultiplier = decimal.NewFromInt(2)
)

// CoinFlip wins when the uniform heads/tails draw lands on Choice. Pays 2x.
type CoinFlip struct {
	Choice Side
}

func (CoinFlip) Type() wallet.GameType { return wallet.GameCoinFlip }
func (CoinFlip) Multiplier() decimal.Decimal { return coinFlipMultiplier }

func (g CoinFlip) Validate() error {
	if g.Choice != Heads && g.Choice != Tails {
		return fmt.Errorf("%w: side must be heads or tails", wallet.ErrInvalidInput)
	}
	return nil
}

func (g CoinFlip) Draw(rng *rand.Rand) bool {
	outcome := Tails
	if rng.Float64() > 0.5 {
		outcome = Heads
	}
	return outcome == g.Choice
}

// DiceRoll wins when the uniform 1..6 draw equals Guess. Pays 5x.
type DiceRoll struct {
	Guess int
}

func (DiceRoll) Type() wallet.GameType { return wallet.GameDiceRoll }
func (DiceRoll) Multiplier() decimal.Decimal { return diceRollMultiplier }

func (g DiceRoll) Validate() error {
	if g.Guess < 1 || g.Guess > 6 {
		return fmt.Errorf("%w: guess must be between 1 and 6", wallet.ErrInvalidInput)
	}
	return nil
}

func (g DiceRoll) Draw(rng *rand.Rand) bool {
	return rng.Intn(6)+1 == g.Guess
}
