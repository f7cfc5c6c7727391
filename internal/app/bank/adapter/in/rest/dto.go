package rest

import "github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"

// AccountDTO 帳戶回應
type AccountDTO struct {
	ID      int64 `json:"id"`
	CharID  int64 `json:"charId"`
	Balance int64 `json:"balance"`
}

// BalanceDTO 餘額回應
type BalanceDTO struct {
	Balance int64 `json:"balance"`
}

// CreateAccountDTO 建立帳戶請求，balance 省略時為 0
type CreateAccountDTO struct {
	CharID  *int64 `json:"charId" validate:"required"`
	Balance *int64 `json:"balance,omitempty" validate:"omitempty,min=0"`
}

// ChangeBalanceDTO 變更餘額請求
type ChangeBalanceDTO struct {
	Delta *int64 `json:"delta" validate:"required"`
}

func toDTO(a *domain.Account) AccountDTO {
	return AccountDTO{
		ID:      a.ID().Value(),
		CharID:  a.OwnerID().Value(),
		Balance: a.Balance().Amount(),
	}
}

func toDTOs(accounts []*domain.Account) []AccountDTO {
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toDTO(a))
	}
	return dtos
}
