package domain

import (
	"fmt"
	"time"
)

// Account 銀行帳戶
//
// 不變條件: 餘額永遠 >= 0，每次變動後檢查，違反時帳戶不被修改
//
// CreatedAt / ModifiedAt / Version 由儲存層維護，
// Version 用於樂觀鎖 (optimistic locking)
type Account struct {
	id      AccountID
	ownerID CharacterID
	balance Money

	createdAt  time.Time
	modifiedAt time.Time
	version    int64
}

// NewAccount 建立一個尚未儲存的帳戶
//
// 參數:
//
//	ownerID: 擁有者角色 ID
//	balance: 初始餘額
//
// 回傳:
//
//	*Account: 帳戶 (尚無 ID)
//	error: 初始餘額為負時回傳 InsufficientFunds
func NewAccount(ownerID CharacterID, balance Money) (*Account, error) {
	if balance.IsNegative() {
		return nil, InsufficientFunds{}
	}
	return &Account{
		ownerID: ownerID,
		balance: balance,
	}, nil
}

// RestoreAccount 由儲存層還原帳戶，不做餘額檢查 (資料已在寫入時驗證過)
func RestoreAccount(id AccountID, ownerID CharacterID, balance Money, createdAt, modifiedAt time.Time, version int64) *Account {
	return &Account{
		id:         id,
		ownerID:    ownerID,
		balance:    balance,
		createdAt:  createdAt,
		modifiedAt: modifiedAt,
		version:    version,
	}
}

func (a *Account) ID() AccountID         { return a.id }
func (a *Account) OwnerID() CharacterID  { return a.ownerID }
func (a *Account) Balance() Money        { return a.balance }
func (a *Account) CreatedAt() time.Time  { return a.createdAt }
func (a *Account) ModifiedAt() time.Time { return a.modifiedAt }
func (a *Account) Version() int64        { return a.version }
func (a *Account) HasIdentity() bool     { return a.id != 0 }

// ChangeBalance 變更餘額，delta 為負代表提款
//
// 全有或全無: 新餘額為負時帳戶不變並回傳 InsufficientFunds，
// 否則就地更新並回傳同一個帳戶 (方便串接)
func (a *Account) ChangeBalance(delta Money) (*Account, error) {
	newBalance := Add(a.balance, delta)
	if newBalance.IsNegative() {
		return a, InsufficientFunds{}
	}
	a.balance = newBalance
	return a, nil
}

// Clone 複製一份帳戶，讓儲存層不與呼叫端共用指標
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// Equal 以 ID 判斷是否為同一帳戶；尚未儲存的帳戶沒有身分，不與任何帳戶相等
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return false
	}
	if !a.HasIdentity() || !other.HasIdentity() {
		return false
	}
	return a.id == other.id
}

func (a *Account) String() string {
	return fmt.Sprintf("Account ID %d for %s with balance %s", a.id, a.ownerID, a.balance)
}
