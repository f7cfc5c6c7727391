package usecase

import (
	"context"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

// Accounts 對外介面 (REST / GraphQL / gRPC) 使用的帳戶操作
type Accounts interface {
	CreateAccount(ctx context.Context, ownerID domain.CharacterID, balance *domain.Money) (*domain.Account, error)
	GetAccountByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	GetAccountByOwner(ctx context.Context, ownerID domain.CharacterID) (*domain.Account, error)
	GetAccountsPage(ctx context.Context, pageNumber, pageLength int, sortBy string, descending bool) ([]*domain.Account, error)
	GetAllAccounts(ctx context.Context) ([]*domain.Account, error)
	ChangeBalance(ctx context.Context, id domain.AccountID, delta domain.Money) (domain.Money, error)
}

// 分頁查詢預設值
const (
	DefaultPageNumber = 0
	DefaultPageLength = 10
)

var _ Accounts = (*AccountService)(nil)
