package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewAccountRejectsNegativeBalance(t *testing.T) {
	account, err := NewAccount(CharacterIDOf(1), MoneyFrom(-1))
	if account != nil {
		t.Fatalf("expected no account, got %v", account)
	}
	var insufficient InsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
}

func TestNewAccountHasNoIdentity(t *testing.T) {
	account, err := NewAccount(CharacterIDOf(1), ZeroMoney)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.HasIdentity() {
		t.Fatal("fresh account must not have an identity")
	}
	if account.Equal(account) {
		t.Fatal("unsaved account must not equal anything, itself included")
	}
}

func TestChangeBalanceIsAllOrNothing(t *testing.T) {
	account, err := NewAccount(CharacterIDOf(42), MoneyFrom(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same, err := account.ChangeBalance(MoneyFrom(-11))
	if !errors.Is(err, InsufficientFunds{}) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
	if same != account {
		t.Fatal("expected the same account handle")
	}
	if account.Balance() != MoneyFrom(10) {
		t.Fatalf("balance changed to %v after failed withdrawal", account.Balance())
	}

	chained, err := account.ChangeBalance(MoneyFrom(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chained, err = chained.ChangeBalance(MoneyFrom(-11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance() != ZeroMoney {
		t.Fatalf("balance = %v, want $0", account.Balance())
	}
	if chained != account {
		t.Fatal("chaining must return the mutated account")
	}
}

func TestAccountEqualByIdentity(t *testing.T) {
	now := time.Now()
	a := RestoreAccount(7, CharacterIDOf(1), MoneyFrom(5), now, now, 0)
	b := RestoreAccount(7, CharacterIDOf(1), MoneyFrom(9), now, now, 3)
	c := RestoreAccount(8, CharacterIDOf(2), MoneyFrom(5), now, now, 0)
	if !a.Equal(b) {
		t.Fatal("accounts with the same id should be equal")
	}
	if a.Equal(c) {
		t.Fatal("accounts with different ids should differ")
	}
}

func TestAccountString(t *testing.T) {
	now := time.Now()
	a := RestoreAccount(1, CharacterIDOf(42), MoneyFrom(10), now, now, 0)
	want := "Account ID 1 for CID:42 with balance $10"
	if got := a.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
