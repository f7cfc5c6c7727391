package usecase

import (
	"context"
	"errors"
	"math"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

var (
	// ErrAccountNotFound 儲存層找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateOwner 違反擁有者唯一限制
	ErrDuplicateOwner = errors.New("duplicate account owner")

	// ErrStaleAccount 樂觀鎖衝突: 帳戶在讀取後已被其他請求修改
	ErrStaleAccount = errors.New("account modified concurrently")

	// ErrUnknownSortField 不支援的排序欄位
	ErrUnknownSortField = errors.New("unknown sort field")

	// ErrOwnerInvariant 同一擁有者出現多個帳戶，屬於儲存層的程式錯誤
	ErrOwnerInvariant = errors.New("more than one account for owner")
)

// SortField 帳戶可排序的欄位 (與對外欄位名稱一致)
type SortField string

const (
	SortByID         SortField = "id"
	SortByOwner      SortField = "charId"
	SortByBalance    SortField = "balance"
	SortByCreatedAt  SortField = "createdAt"
	SortByModifiedAt SortField = "modifiedAt"
)

// DefaultSortField 預設排序欄位
const DefaultSortField = SortByBalance

var sortFields = []SortField{SortByID, SortByOwner, SortByBalance, SortByCreatedAt, SortByModifiedAt}

// ParseSortField 解析排序欄位，不認得的欄位回傳 UnknownProperty
func ParseSortField(name string) (SortField, error) {
	for _, f := range sortFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", domain.UnknownProperty{Property: name}
}

// PageRequest 分頁查詢條件
type PageRequest struct {
	PageNumber int
	PageLength int
	SortBy     SortField
	Descending bool
}

// Offset 第一筆資料的位移量
// ok 為 false 代表分頁參數不合法或位移量超出 int 範圍，該頁必定沒有資料
func (p PageRequest) Offset() (offset int, ok bool) {
	if p.PageNumber < 0 || p.PageLength <= 0 {
		return 0, false
	}
	if p.PageNumber > math.MaxInt/p.PageLength {
		return 0, false
	}
	return p.PageNumber * p.PageLength, true
}

// AccountStore 帳戶的持久化儲存
//
// 實作需保證 OwnerID 唯一；Update 以 Version 做樂觀鎖
type AccountStore interface {
	// Create 新增帳戶並分配 ID，擁有者重複時回傳 ErrDuplicateOwner
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Update 寫回帳戶餘額，Version 不符時回傳 ErrStaleAccount，帳戶不存在時回傳 ErrAccountNotFound
	Update(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// FindByID 以 ID 查詢，找不到時回傳 ErrAccountNotFound
	FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	// FindByOwner 以擁有者查詢，可能回傳 0 筆以上
	FindByOwner(ctx context.Context, ownerID domain.CharacterID) ([]*domain.Account, error)
	// List 分頁排序查詢，排序欄位不支援時回傳 ErrUnknownSortField
	List(ctx context.Context, page PageRequest) ([]*domain.Account, error)
	// ListAll 列出所有帳戶 (依 ID 遞增)
	ListAll(ctx context.Context) ([]*domain.Account, error)
}
