package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-rpg-bank/pkg/wal"
)

// walRecord WAL 中的一筆帳戶快照，重放時以最後一筆為準
type walRecord struct {
	ID         int64 `json:"id"`
	CharID     int64 `json:"cid"`
	Balance    int64 `json:"balance"`
	Version    int64 `json:"version"`
	CreatedAt  int64 `json:"created_at"`
	ModifiedAt int64 `json:"modified_at"`
}

func encodeRecord(a *domain.Account) walRecord {
	return walRecord{
		ID:         a.ID().Value(),
		CharID:     a.OwnerID().Value(),
		Balance:    a.Balance().Amount(),
		Version:    a.Version(),
		CreatedAt:  a.CreatedAt().UnixMilli(),
		ModifiedAt: a.ModifiedAt().UnixMilli(),
	}
}

func decodeRecord(r walRecord) *domain.Account {
	return domain.RestoreAccount(
		domain.AccountID(r.ID),
		domain.CharacterIDOf(r.CharID),
		domain.MoneyFrom(r.Balance),
		time.UnixMilli(r.CreatedAt),
		time.UnixMilli(r.ModifiedAt),
		r.Version,
	)
}

// MutexStore 以 Mutex 保護的記憶體帳戶儲存
//
// 結構:
//
//	accounts: 帳戶 ID 對應帳戶
//	owners: 擁有者對應帳戶 ID (唯一索引)
//	wal: Write-Ahead Log 實例，nil 時僅存在記憶體
type MutexStore struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*domain.Account
	owners   map[domain.CharacterID]domain.AccountID
	nextID   domain.AccountID
	wal      *wal.Log
	now      func() time.Time
}

// NewMutexStore 建立 MutexStore 並從 WAL 恢復帳戶
//
// 參數:
//
//	wal: Write-Ahead Log 實例，可為 nil
//
// 回傳:
//
//	*MutexStore: MutexStore 實例
//	error: WAL 恢復失敗
func NewMutexStore(wal *wal.Log) (*MutexStore, error) {
	store := &MutexStore{
		accounts: make(map[domain.AccountID]*domain.Account),
		owners:   make(map[domain.CharacterID]domain.AccountID),
		nextID:   1,
		wal:      wal,
		now:      time.Now,
	}
	if err := store.recoverFromWAL(); err != nil {
		return nil, err
	}
	return store, nil
}

// recoverFromWAL 重放 WAL，只有 NewMutexStore 呼叫，無需 Lock (單執行緒)
func (m *MutexStore) recoverFromWAL() error {
	if m.wal == nil {
		return nil
	}
	return m.wal.Replay(func(jsonRaw []byte) error {
		var rec walRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return fmt.Errorf("decode wal record: %w", err)
		}
		m.apply(decodeRecord(rec))
		return nil
	})
}

// apply 寫入記憶體 (呼叫端需持有寫鎖)
func (m *MutexStore) apply(account *domain.Account) {
	m.accounts[account.ID()] = account
	m.owners[account.OwnerID()] = account.ID()
	if account.ID() >= m.nextID {
		m.nextID = account.ID() + 1
	}
}

// persist 先寫 WAL 再寫記憶體；WAL 失敗時記憶體不變，紀錄也不會被重放
func (m *MutexStore) persist(account *domain.Account) error {
	if m.wal != nil {
		if err := m.wal.Append(encodeRecord(account)); err != nil {
			return fmt.Errorf("write wal: %w", err)
		}
	}
	m.apply(account)
	return nil
}

// Create 新增帳戶並分配 ID
func (m *MutexStore) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owners[account.OwnerID()]; ok {
		return nil, fmt.Errorf("%w: %s", usecase.ErrDuplicateOwner, account.OwnerID())
	}
	now := m.now()
	created := domain.RestoreAccount(m.nextID, account.OwnerID(), account.Balance(), now, now, 0)
	if err := m.persist(created); err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// Update 寫回餘額，Version 需與目前相同
func (m *MutexStore) Update(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.accounts[account.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %d", usecase.ErrAccountNotFound, account.ID())
	}
	if current.Version() != account.Version() {
		return nil, fmt.Errorf("%w: account %d has version %d, got %d",
			usecase.ErrStaleAccount, account.ID(), current.Version(), account.Version())
	}
	updated := domain.RestoreAccount(current.ID(), current.OwnerID(), account.Balance(),
		current.CreatedAt(), m.now(), current.Version()+1)
	if err := m.persist(updated); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// FindByID 以 ID 查詢
func (m *MutexStore) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", usecase.ErrAccountNotFound, id)
	}
	return account.Clone(), nil
}

// FindByOwner 以擁有者查詢
func (m *MutexStore) FindByOwner(ctx context.Context, ownerID domain.CharacterID) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.owners[ownerID]
	if !ok {
		return nil, nil
	}
	return []*domain.Account{m.accounts[id].Clone()}, nil
}

// List 分頁排序查詢，相同排序值時以 ID 遞增排列
func (m *MutexStore) List(ctx context.Context, page usecase.PageRequest) ([]*domain.Account, error) {
	compare, ok := comparators[page.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", usecase.ErrUnknownSortField, page.SortBy)
	}

	all := m.snapshot()
	slices.SortFunc(all, func(a, b *domain.Account) int {
		c := compare(a, b)
		if page.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})

	start, ok := page.Offset()
	if !ok || start >= len(all) {
		return []*domain.Account{}, nil
	}
	end := min(start+page.PageLength, len(all))
	return all[start:end], nil
}

// ListAll 列出所有帳戶 (依 ID 遞增)
func (m *MutexStore) ListAll(ctx context.Context) ([]*domain.Account, error) {
	all := m.snapshot()
	slices.SortFunc(all, func(a, b *domain.Account) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return all, nil
}

func (m *MutexStore) snapshot() []*domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		all = append(all, account.Clone())
	}
	return all
}

var comparators = map[usecase.SortField]func(a, b *domain.Account) int{
	usecase.SortByID: func(a, b *domain.Account) int {
		return cmp.Compare(a.ID(), b.ID())
	},
	usecase.SortByOwner: func(a, b *domain.Account) int {
		return cmp.Compare(a.OwnerID(), b.OwnerID())
	},
	usecase.SortByBalance: func(a, b *domain.Account) int {
		return a.Balance().Compare(b.Balance())
	},
	usecase.SortByCreatedAt: func(a, b *domain.Account) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	},
	usecase.SortByModifiedAt: func(a, b *domain.Account) int {
		return a.ModifiedAt().Compare(b.ModifiedAt())
	},
}

var _ usecase.AccountStore = (*MutexStore)(nil)
