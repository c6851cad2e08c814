package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Debit removes amount from the active wallet's balance. The amount must be
// positive and covered by the current balance; a failed debit leaves no
// trace. Returns the new balance.
func (s *Service) Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return decimal.Zero, ErrNotConnected
	}
	if err := s.debitLocked(ctx, amount); err != nil {
		return decimal.Zero, err
	}
	return s.balance, nil
}

// Credit adds amount to the active wallet's balance. The amount must be
// non-negative; there is no upper bound. Returns the new balance.
func (s *Service) Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		return decimal.Zero, ErrNotConnected
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidInput
	}
	s.creditLocked(ctx, amount)
	return s.balance, nil
}

func (s *Service) debitLocked(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidInput
	}
	if s.balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	s.balance = s.balance.Sub(amount)
	s.dir.balances[s.session.Address] = s.balance
	s.persistBalancesLocked(ctx)
	return nil
}

func (s *Service) creditLocked(ctx context.Context, amount decimal.Decimal) {
	s.balance = s.balance.Add(amount)
	s.dir.balances[s.session.Address] = s.balance
	s.persistBalancesLocked(ctx)
}
