package wallet

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// directory is the account registry behind the service. It mirrors the four
// persisted maps (stats, balances, profiles) plus the insertion order needed
// for stable ranking. All access happens under the service lock.
type directory struct {
	stats    map[string]*Stats
	balances map[string]decimal.Decimal
	profiles map[string]Profile
	order    []string
}

func newDirectory() *directory {
	return &directory{
		stats:    make(map[string]*Stats),
		balances: make(map[string]decimal.Decimal),
		profiles: make(map[string]Profile),
	}
}

func (d *directory) has(address string) bool {
	_, ok := d.stats[address]
	return ok
}

func (d *directory) get(address string) (Account, bool) {
	stats, ok := d.stats[address]
	if !ok {
		return Account{}, false
	}
	return Account{
		Address: address,
		Balance: d.balances[address],
		Profile: d.profiles[address],
		Stats:   *stats,
	}, true
}

// getOrCreate returns the account for address, creating it with the initial
// endowment, zero stats and a generated profile on first sight. The second
// return reports whether a new entry was created.
func (d *directory) getOrCreate(address string, initialBalance decimal.Decimal) (Account, bool) {
	if account, ok := d.get(address); ok {
		return account, false
	}
	d.stats[address] = &Stats{Address: address, Volume: decimal.Zero}
	d.balances[address] = initialBalance
	d.profiles[address] = defaultProfile(address)
	d.order = append(d.order, address)
	account, _ := d.get(address)
	return account, true
}

func (d *directory) setBalance(address string, balance decimal.Decimal) error {
	if !d.has(address) {
		return ErrUnknownAccount
	}
	d.balances[address] = balance
	return nil
}

func (d *directory) setProfile(address string, profile Profile) error {
	if !d.has(address) {
		return ErrUnknownAccount
	}
	d.profiles[address] = profile
	return nil
}

func (d *directory) recordOutcome(address string, won bool, stake decimal.Decimal) error {
	stats, ok := d.stats[address]
	if !ok {
		return ErrUnknownAccount
	}
	stats.Volume = stats.Volume.Add(stake)
	if won {
		stats.Wins++
	} else {
		stats.Losses++
	}
	return nil
}

// rank returns all accounts' stats ordered by descending volume. Ties keep
// insertion order.
func (d *directory) rank() []Stats {
	out := make([]Stats, 0, len(d.order))
	for _, address := range d.order {
		out = append(out, *d.stats[address])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume.GreaterThan(out[j].Volume)
	})
	return out
}

// defaultProfile derives the starter profile from the address, e.g.
// "0xdeadbeef..." becomes "Playerdeadbe".
func defaultProfile(address string) Profile {
	start, end := 2, 8
	if start > len(address) {
		start = len(address)
	}
	if end > len(address) {
		end = len(address)
	}
	return Profile{Username: fmt.Sprintf("Player%s", address[start:end])}
}
