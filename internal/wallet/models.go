package wallet

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// GameType names one of the three settlement procedures. The values are the
// display strings the persisted history has always used.
type GameType string

const (
	GameCoinFlip        GameType = "Coin Flip"
	GameDiceRoll        GameType = "Dice Roll"
	GamePricePrediction GameType = "Price Prediction"
)

type Outcome string

const (
	OutcomeWon  Outcome = "Won"
	OutcomeLost Outcome = "Lost"
)

// Profile is freeform display data. The password is stored in plaintext and
// must never be treated as a credential.
type Profile struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Stats struct {
	Address string          `json:"address"`
	Wins    int             `json:"wins"`
	Losses  int             `json:"losses"`
	Volume  decimal.Decimal `json:"volume"`
}

// Account is the assembled view of one wallet: balance, profile and
// aggregated stats under a single address.
type Account struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	Profile Profile         `json:"profile"`
	Stats   Stats           `json:"stats"`
}

// GameRecord is immutable once created. Amount is the stake, Timestamp is
// unix milliseconds.
type GameRecord struct {
	ID        string          `json:"id"`
	Type      GameType        `json:"type"`
	Player    string          `json:"player"`
	Result    Outcome         `json:"result"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp int64           `json:"timestamp"`
}

type Session struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

// Game is one settlement procedure: a pure outcome rule plus its payout
// multiplier. Draw consumes the per-settlement rng and reports a win.
type Game interface {
	Type() GameType
	Multiplier() decimal.Decimal
	Validate() error
	Draw(rng *rand.Rand) bool
}

// Result describes one finished settlement.
type Result struct {
	Record  GameRecord      `json:"record"`
	Won     bool            `json:"won"`
	Payout  decimal.Decimal `json:"payout"`
	Balance decimal.Decimal `json:"balance"`
}
