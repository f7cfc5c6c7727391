package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-rpg-bank/pkg/wal"
)

// loanRecord WAL 中的一筆貸款
type loanRecord struct {
	ID        int64   `json:"id"`
	APR       float64 `json:"apr"`
	CreatedAt int64   `json:"created_at"`
}

// LoanStore 記憶體個人貸款儲存，貸款建立後不再變動，依 ID 遞增保存
type LoanStore struct {
	mu     sync.RWMutex
	loans  []*domain.PersonalLoan
	nextID domain.LoanID
	wal    *wal.Log
	now    func() time.Time
}

// NewLoanStore 建立 LoanStore 並從 WAL 恢復貸款，wal 可為 nil
func NewLoanStore(wal *wal.Log) (*LoanStore, error) {
	store := &LoanStore{
		nextID: 1,
		wal:    wal,
		now:    time.Now,
	}
	if wal == nil {
		return store, nil
	}
	err := wal.Replay(func(raw []byte) error {
		var rec loanRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode loan wal record: %w", err)
		}
		store.apply(domain.RestorePersonalLoan(domain.LoanID(rec.ID), domain.APR(rec.APR), time.UnixMilli(rec.CreatedAt)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *LoanStore) apply(loan *domain.PersonalLoan) {
	s.loans = append(s.loans, loan)
	if loan.ID() >= s.nextID {
		s.nextID = loan.ID() + 1
	}
}

// Create 新增貸款並分配 ID；WAL 寫入失敗時不保存
func (s *LoanStore) Create(ctx context.Context, loan *domain.PersonalLoan) (*domain.PersonalLoan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := domain.RestorePersonalLoan(s.nextID, loan.APR(), s.now())
	if s.wal != nil {
		rec := loanRecord{ID: created.ID().Value(), APR: created.APR().Value(), CreatedAt: created.CreatedAt().UnixMilli()}
		if err := s.wal.Append(rec); err != nil {
			return nil, fmt.Errorf("write wal: %w", err)
		}
	}
	s.apply(created)
	return created, nil
}

// ListAll 列出所有貸款
func (s *LoanStore) ListAll(ctx context.Context) ([]*domain.PersonalLoan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// PersonalLoan 建立後不可變，共用指標即可
	loans := make([]*domain.PersonalLoan, len(s.loans))
	copy(loans, s.loans)
	return loans, nil
}

var _ usecase.LoanStore = (*LoanStore)(nil)
