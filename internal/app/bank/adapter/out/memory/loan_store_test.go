package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/pkg/wal"
)

func newLoan(t *testing.T, apr float64) *domain.PersonalLoan {
	t.Helper()
	loan, err := domain.NewPersonalLoan(domain.APR(apr))
	if err != nil {
		t.Fatalf("NewPersonalLoan: %v", err)
	}
	return loan
}

func TestLoanStoreAssignsIDs(t *testing.T) {
	ctx := context.Background()
	store, err := NewLoanStore(nil)
	if err != nil {
		t.Fatalf("NewLoanStore: %v", err)
	}

	all, _ := store.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("fresh store = %v", all)
	}
	for i, apr := range []float64{0.05, 0.2} {
		created, err := store.Create(ctx, newLoan(t, apr))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID() != domain.LoanID(i+1) || created.CreatedAt().IsZero() {
			t.Fatalf("created = %v at %v", created, created.CreatedAt())
		}
	}
	all, _ = store.ListAll(ctx)
	if len(all) != 2 || all[0].APR() != domain.APR(0.05) || all[1].ID() != 2 {
		t.Fatalf("all = %v", all)
	}
}

func TestLoanStoreRecoverFromWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "loans.wal")

	w, err := wal.Open(path)
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}
	store, err := NewLoanStore(w)
	if err != nil {
		t.Fatalf("NewLoanStore: %v", err)
	}
	store.Create(ctx, newLoan(t, 0.1))
	store.Create(ctx, newLoan(t, 0.3))
	w.Close()

	w2, err := wal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w2.Close()
	recovered, err := NewLoanStore(w2)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	all, _ := recovered.ListAll(ctx)
	if len(all) != 2 || all[1].APR() != domain.APR(0.3) {
		t.Fatalf("recovered = %v", all)
	}
	next, err := recovered.Create(ctx, newLoan(t, 0))
	if err != nil || next.ID() != 3 {
		t.Fatalf("next = %v, %v", next, err)
	}
}
