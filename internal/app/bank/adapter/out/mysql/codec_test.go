package mysql

import (
	"errors"
	"fmt"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

func TestRowRoundTrip(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_000)
	modified := time.UnixMilli(1_700_000_500_000)
	row := &sqlAccount{ID: 3, CharID: 42, Balance: 10, Version: 2, CreatedAt: created.UnixMilli(), ModifiedAt: modified.UnixMilli()}

	account := fromRow(row)
	if account.ID() != 3 || account.OwnerID() != domain.CharacterIDOf(42) || account.Balance() != domain.MoneyFrom(10) {
		t.Fatalf("decoded %v", account)
	}
	if account.Version() != 2 || !account.CreatedAt().Equal(created) || !account.ModifiedAt().Equal(modified) {
		t.Fatalf("bookkeeping not decoded: %v %v %d", account.CreatedAt(), account.ModifiedAt(), account.Version())
	}

	back := toRow(account)
	if back.ID != 3 || back.CharID != 42 || back.Balance != 10 || back.Version != 2 {
		t.Fatalf("encoded %+v", back)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"driver 1062", fmt.Errorf("insert: %w", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}), true},
		{"other driver error", &mysqldriver.MySQLError{Number: 1213, Message: "Deadlock"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKey(tt.err); got != tt.want {
				t.Fatalf("isDuplicateKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortColumnsCoverEverySortField(t *testing.T) {
	for _, name := range []string{"id", "charId", "balance", "createdAt", "modifiedAt"} {
		field, err := usecase.ParseSortField(name)
		if err != nil {
			t.Fatalf("ParseSortField(%q): %v", name, err)
		}
		if _, ok := sortColumns[field]; !ok {
			t.Fatalf("no column for %q", name)
		}
	}
}

func TestLoanFromRow(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_000)
	loan := loanFromRow(&sqlPersonalLoan{ID: 4, APR: 0.15, CreatedAt: created.UnixMilli()})
	if loan.ID() != 4 || loan.APR() != domain.APR(0.15) || !loan.CreatedAt().Equal(created) {
		t.Fatalf("decoded %v at %v", loan, loan.CreatedAt())
	}
	if (&sqlPersonalLoan{}).TableName() != "personal_loan" {
		t.Fatal("unexpected table name")
	}
}
