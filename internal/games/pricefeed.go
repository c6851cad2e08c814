package games

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	startingPrice        = 3245.67
	DefaultPriceInterval = 2 * time.Second
)

// PriceFeed simulates a live price signal: every interval the price moves
// by a small random perturbation with a slight upward drift. The "Oracle"
// label in the UI is cosmetic; nothing here is a market.
type PriceFeed struct {
	interval time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	price   float64
	rng     *rand.Rand
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewPriceFeed(interval time.Duration, log *logrus.Entry) *PriceFeed {
	if interval <= 0 {
		interval = DefaultPriceInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "pricefeed")
	}
	return &PriceFeed{
		interval: interval,
		log:      log,
		price:    startingPrice,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Price returns the current simulated price.
func (f *PriceFeed) Price() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price
}

// Start launches the ticker goroutine. Calling Start on a running feed is a
// no-op.
func (f *PriceFeed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.running = true
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				f.tick()
			}
		}
	}()
	f.log.Info("price feed started")
}

// Stop cancels the ticker goroutine and waits for it to exit.
func (f *PriceFeed) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	cancel := f.cancel
	f.running = false
	f.cancel = nil
	f.mu.Unlock()

	cancel()
	f.wg.Wait()
	f.log.Info("price feed stopped")
}

func (f *PriceFeed) tick() {
	f.mu.Lock()
	f.price += (f.rng.Float64() - 0.48) * 5
	f.mu.Unlock()
}
