package wallet

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"quickplay_service/internal/store"
)

const testAddress = "0xAA...01"

// fixedGame settles with a predetermined outcome, keeping draw randomness
// out of the state-machine tests.
type fixedGame struct {
	gameType   GameType
	won        bool
	multiplier decimal.Decimal
}

func (g fixedGame) Type() GameType { return g.gameType }
func (g fixedGame) Multiplier() decimal.Decimal { return g.multiplier }
func (g fixedGame) Validate() error { return nil }
func (g fixedGame) Draw(*rand.Rand) bool { return g.won }

func winningGame() fixedGame {
	return fixedGame{gameType: GameCoinFlip, won: true, multiplier: decimal.NewFromInt(2)}
}

func losingGame() fixedGame {
	return fixedGame{gameType: GameCoinFlip, won: false, multiplier: decimal.NewFromInt(2)}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.MemoryRepository) {
	t.Helper()
	repo := store.NewMemoryRepository()
	return New(context.Background(), repo, opts...), repo
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want, err := decimal.NewFromString(expected)
	require.NoError(t, err)
	require.True(t, want.Equal(actual), "expected %s, got %s", expected, actual)
}

func TestConnectCreatesAccountWithDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	account, err := svc.Connect(context.Background(), "0xdeadbeef01")
	require.NoError(t, err)

	requireDecimal(t, "2.0", account.Balance)
	require.Equal(t, "Playerdeadbe", account.Profile.Username)
	require.Empty(t, account.Profile.Password)
	require.Zero(t, account.Stats.Wins)
	require.Zero(t, account.Stats.Losses)
	requireDecimal(t, "0", account.Stats.Volume)

	session := svc.Session()
	require.True(t, session.Connected)
	require.Equal(t, "0xdeadbeef01", session.Address)
}

func TestConnectRejectsEmptyAddress(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Connect(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Connect(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.False(t, svc.Session().Connected)
}

func TestDebitAndCredit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	balance, err := svc.Debit(ctx, decimal.NewFromFloat(0.5))
	require.NoError(t, err)
	requireDecimal(t, "1.5", balance)

	balance, err = svc.Credit(ctx, decimal.NewFromFloat(0.25))
	require.NoError(t, err)
	requireDecimal(t, "1.75", balance)
}

func TestDebitInsufficientLeavesBalanceUntouched(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	_, err = svc.Debit(ctx, decimal.NewFromInt(3))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	balance, connected := svc.Balance()
	require.True(t, connected)
	requireDecimal(t, "2.0", balance)
}

func TestDebitRejectsNonPositiveAmounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	_, err = svc.Debit(ctx, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Debit(ctx, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLedgerRequiresConnection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Debit(ctx, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = svc.Credit(ctx, decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSettleWinPaysMultiplierAndRecords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	stake := decimal.NewFromFloat(0.05)
	result, err := svc.Settle(ctx, winningGame(), stake)
	require.NoError(t, err)

	require.True(t, result.Won)
	requireDecimal(t, "0.1", result.Payout)
	requireDecimal(t, "2.05", result.Balance)
	require.Equal(t, OutcomeWon, result.Record.Result)
	require.Equal(t, GameCoinFlip, result.Record.Type)
	require.Equal(t, testAddress, result.Record.Player)
	require.NotEmpty(t, result.Record.ID)

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Wins)
	require.Equal(t, 0, stats.Losses)
	requireDecimal(t, "0.05", stats.Volume)
}

func TestSettleLossForfeitsStake(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	result, err := svc.Settle(ctx, losingGame(), decimal.NewFromFloat(0.5))
	require.NoError(t, err)

	require.False(t, result.Won)
	requireDecimal(t, "0", result.Payout)
	requireDecimal(t, "1.5", result.Balance)

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, stats.Wins)
	require.Equal(t, 1, stats.Losses)
}

func TestSettleInsufficientStakeChangesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	_, err = svc.Settle(ctx, winningGame(), decimal.NewFromInt(5))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	balance, _ := svc.Balance()
	requireDecimal(t, "2.0", balance)
	require.Empty(t, collect(svc.History(0)))
	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.Wins+stats.Losses)
}

func TestSettleRequiresConnection(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Settle(context.Background(), winningGame(), decimal.NewFromFloat(0.05))
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestBalanceNeverNegative(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := svc.Settle(ctx, losingGame(), decimal.NewFromFloat(0.3))
		if err != nil {
			require.ErrorIs(t, err, ErrInsufficientBalance)
			break
		}
	}
	balance, _ := svc.Balance()
	require.False(t, balance.IsNegative(), "balance went negative: %s", balance)
}

func TestWinsPlusLossesMatchHistoryLength(t *testing.T) {
	svc, _ := newTestService(t, WithInitialBalance(decimal.NewFromInt(100)))
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	games := []fixedGame{winningGame(), losingGame(), losingGame(), winningGame(), losingGame()}
	for _, g := range games {
		_, err := svc.Settle(ctx, g, decimal.NewFromFloat(0.1))
		require.NoError(t, err)
	}

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, len(games), stats.Wins+stats.Losses)
	require.Len(t, collect(svc.HistoryFor(testAddress, 0)), len(games))
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	svc, _ := newTestService(t, WithInitialBalance(decimal.NewFromInt(1000)))
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	var ids []string
	for i := 0; i < DefaultHistoryCap+1; i++ {
		result, err := svc.Settle(ctx, winningGame(), decimal.NewFromFloat(0.01))
		require.NoError(t, err)
		ids = append(ids, result.Record.ID)
	}

	records := collect(svc.History(0))
	require.Len(t, records, DefaultHistoryCap)
	// Newest first; the very first settlement has been evicted.
	require.Equal(t, ids[len(ids)-1], records[0].ID)
	require.Equal(t, ids[1], records[len(records)-1].ID)
	for _, record := range records {
		require.NotEqual(t, ids[0], record.ID)
	}
}

func TestHistoryLimitAndRestart(t *testing.T) {
	svc, _ := newTestService(t, WithInitialBalance(decimal.NewFromInt(100)))
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Settle(ctx, losingGame(), decimal.NewFromFloat(0.1))
		require.NoError(t, err)
	}

	seq := svc.History(2)
	require.Len(t, collect(seq), 2)

	// Re-iterating the same sequence reflects later recordings.
	result, err := svc.Settle(ctx, winningGame(), decimal.NewFromFloat(0.1))
	require.NoError(t, err)
	again := collect(seq)
	require.Len(t, again, 2)
	require.Equal(t, result.Record.ID, again[0].ID)
}

func TestHistoryForFiltersByPlayer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Connect(ctx, "0xplayer-a")
	require.NoError(t, err)
	_, err = svc.Settle(ctx, winningGame(), decimal.NewFromFloat(0.1))
	require.NoError(t, err)

	_, err = svc.Connect(ctx, "0xplayer-b")
	require.NoError(t, err)
	_, err = svc.Settle(ctx, losingGame(), decimal.NewFromFloat(0.2))
	require.NoError(t, err)

	forA := collect(svc.HistoryFor("0xplayer-a", 0))
	require.Len(t, forA, 1)
	require.Equal(t, "0xplayer-a", forA[0].Player)
	require.Len(t, collect(svc.History(0)), 2)
}

func TestLeaderboardOrdersByVolumeStably(t *testing.T) {
	svc, _ := newTestService(t, WithInitialBalance(decimal.NewFromInt(100)))
	ctx := context.Background()

	play := func(address string, stake float64) {
		t.Helper()
		_, err := svc.Connect(ctx, address)
		require.NoError(t, err)
		_, err = svc.Settle(ctx, losingGame(), decimal.NewFromFloat(stake))
		require.NoError(t, err)
	}

	play("0xfirst-tied", 0.5)
	play("0xbig-spender", 2.0)
	play("0xsecond-tied", 0.5)

	board := svc.Leaderboard()
	require.Len(t, board, 3)
	require.Equal(t, "0xbig-spender", board[0].Address)
	// Tie on volume keeps first-connect order.
	require.Equal(t, "0xfirst-tied", board[1].Address)
	require.Equal(t, "0xsecond-tied", board[2].Address)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.UpdateProfile(ctx, "name", "secret"), ErrNotConnected)

	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateProfile(ctx, "HighRoller", "hunter2"))

	profile, err := svc.Profile()
	require.NoError(t, err)
	require.Equal(t, "HighRoller", profile.Username)
	require.Equal(t, "hunter2", profile.Password)
}

func TestDisconnectFlushesAndClears(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, decimal.NewFromFloat(0.5))
	require.NoError(t, err)

	svc.Disconnect(ctx)
	require.False(t, svc.Session().Connected)
	_, connected := svc.Balance()
	require.False(t, connected)

	// The directory entry survives with the flushed balance.
	account, err := svc.Account(testAddress)
	require.NoError(t, err)
	requireDecimal(t, "1.5", account.Balance)

	// Disconnecting again is a no-op.
	svc.Disconnect(ctx)
	require.False(t, svc.Session().Connected)
}

func TestReconnectRestoresPersistedState(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	svc := New(ctx, repo)
	_, err := svc.Connect(ctx, "0xwallet-a")
	require.NoError(t, err)
	_, err = svc.Settle(ctx, winningGame(), decimal.NewFromFloat(0.05))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateProfile(ctx, "Alice", "pw"))
	svc.Disconnect(ctx)

	_, err = svc.Connect(ctx, "0xwallet-b")
	require.NoError(t, err)
	_, err = svc.Settle(ctx, losingGame(), decimal.NewFromFloat(1.0))
	require.NoError(t, err)
	svc.Disconnect(ctx)

	// Fresh service over the same store: A's state is exactly as of A's
	// last disconnect, untouched by B's activity.
	restored := New(ctx, repo)
	account, err := restored.Connect(ctx, "0xwallet-a")
	require.NoError(t, err)
	requireDecimal(t, "2.05", account.Balance)
	require.Equal(t, 1, account.Stats.Wins)
	require.Equal(t, 0, account.Stats.Losses)
	requireDecimal(t, "0.05", account.Stats.Volume)
	require.Equal(t, "Alice", account.Profile.Username)
	require.Equal(t, "pw", account.Profile.Password)
	require.Len(t, collect(restored.History(0)), 2)
}

func TestAccountsChangedEmptyListDisconnects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	svc.HandleAccountsChanged(ctx, nil)
	require.False(t, svc.Session().Connected)
}

func TestAccountsChangedIgnoredWhileDisconnected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.HandleAccountsChanged(ctx, []string{"0xsomeone"})
	require.False(t, svc.Session().Connected)
	_, err := svc.Account("0xsomeone")
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestAccountsChangedSwitchFlushesOutgoing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Connect(ctx, "0xwallet-a")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, decimal.NewFromFloat(0.5))
	require.NoError(t, err)

	svc.HandleAccountsChanged(ctx, []string{"0xwallet-b"})

	session := svc.Session()
	require.True(t, session.Connected)
	require.Equal(t, "0xwallet-b", session.Address)

	account, err := svc.Account("0xwallet-a")
	require.NoError(t, err)
	requireDecimal(t, "1.5", account.Balance)
}

func TestAccountsChangedSameAccountIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Connect(ctx, testAddress)
	require.NoError(t, err)

	svc.HandleAccountsChanged(ctx, []string{testAddress})
	session := svc.Session()
	require.True(t, session.Connected)
	require.Equal(t, testAddress, session.Address)
}

func TestCompleteStakeAfterSwitchFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Connect(ctx, "0xwallet-a")
	require.NoError(t, err)
	player, err := svc.BeginStake(ctx, decimal.NewFromFloat(0.5))
	require.NoError(t, err)
	require.Equal(t, "0xwallet-a", player)

	svc.Disconnect(ctx)
	_, err = svc.CompleteStake(ctx, player, GamePricePrediction, true, decimal.NewFromFloat(0.5), decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrNotConnected)

	// Voiding refunds the directory entry even while disconnected.
	require.NoError(t, svc.RefundStake(ctx, player, decimal.NewFromFloat(0.5)))
	account, err := svc.Account(player)
	require.NoError(t, err)
	requireDecimal(t, "2.0", account.Balance)
}

func TestRefundStakeUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.RefundStake(context.Background(), "0xnobody", decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func collect(seq func(func(GameRecord) bool)) []GameRecord {
	var out []GameRecord
	seq(func(r GameRecord) bool {
		out = append(out, r)
		return true
	})
	return out
}
