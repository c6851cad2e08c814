package wallet

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Provider is the external wallet-provider collaborator (an Ethereum-style
// browser extension in the original setting). Implementations surface
// ErrProviderRejected and ErrProviderRequestPending from RequestAccounts;
// AccountsChanged streams the authorized account list whenever it changes
// outside this process's control.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	AccountsChanged() <-chan []string
}

// Connect activates a session for address, creating the account on first
// connect with the initial endowment, zero stats and a generated profile.
func (s *Service) Connect(ctx context.Context, address string) (Account, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Account{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	account, created := s.dir.getOrCreate(address, s.initialBalance)
	s.session = Session{Connected: true, Address: address}
	s.balance = account.Balance
	if created {
		s.persistStatsLocked(ctx)
		s.persistProfilesLocked(ctx)
	}
	s.persistBalancesLocked(ctx)
	s.log.WithField("address", address).Info("wallet connected")
	return account, nil
}

// ConnectWithProvider asks the wallet provider for its authorized accounts
// and connects the first one.
func (s *Service) ConnectWithProvider(ctx context.Context) (Account, error) {
	if s.provider == nil {
		return Account{}, ErrProviderUnavailable
	}
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return Account{}, err
	}
	if len(accounts) == 0 {
		return Account{}, ErrProviderRejected
	}
	return s.Connect(ctx, accounts[0])
}

// Disconnect flushes the active balance to the directory and clears the
// session. No-op when already disconnected; the directory entry survives.
func (s *Service) Disconnect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked(ctx)
}

func (s *Service) disconnectLocked(ctx context.Context) {
	if !s.session.Connected {
		return
	}
	address := s.session.Address
	s.dir.balances[address] = s.balance
	s.persistBalancesLocked(ctx)
	s.session = Session{}
	s.balance = decimal.Zero
	s.log.WithField("address", address).Info("wallet disconnected")
}

// HandleAccountsChanged reacts to the provider's accounts-changed
// notification. An empty list disconnects; a changed first account flushes
// the outgoing wallet and connects the incoming one. Notifications while
// disconnected are ignored (no auto-connect).
func (s *Service) HandleAccountsChanged(ctx context.Context, accounts []string) {
	s.mu.Lock()
	if len(accounts) == 0 {
		s.disconnectLocked(ctx)
		s.mu.Unlock()
		return
	}
	if !s.session.Connected || accounts[0] == s.session.Address {
		s.mu.Unlock()
		return
	}
	s.dir.balances[s.session.Address] = s.balance
	s.persistBalancesLocked(ctx)
	s.mu.Unlock()

	if _, err := s.Connect(ctx, accounts[0]); err != nil {
		s.log.WithError(err).Warn("account switch failed")
	}
}

// WatchProvider routes the provider's accounts-changed stream into
// HandleAccountsChanged until ctx is done. Returns ErrProviderUnavailable
// when no provider is configured.
func (s *Service) WatchProvider(ctx context.Context) error {
	if s.provider == nil {
		return ErrProviderUnavailable
	}
	changes := s.provider.AccountsChanged()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case accounts, ok := <-changes:
			if !ok {
				return nil
			}
			s.HandleAccountsChanged(ctx, accounts)
		}
	}
}
