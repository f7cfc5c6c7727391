package mysql

import (
	"time"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

// sqlAccount 對應資料庫的 account 表
type sqlAccount struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	CharID     int64 `gorm:"column:cid;not null;uniqueIndex:uk_account_cid"`
	Balance    int64 `gorm:"column:balance;not null"`
	Version    int64 `gorm:"column:version;not null;default:0"`
	CreatedAt  int64 `gorm:"column:created_at;autoCreateTime:milli"`
	ModifiedAt int64 `gorm:"column:modified_at;autoUpdateTime:milli"`
}

func (*sqlAccount) TableName() string {
	return "account"
}

// encodeMoney / decodeMoney Money 與 balance 欄位互轉
func encodeMoney(m domain.Money) int64 {
	return m.Amount()
}

func decodeMoney(v int64) domain.Money {
	return domain.MoneyFrom(v)
}

// encodeCharacterID / decodeCharacterID CharacterID 與 cid 欄位互轉
func encodeCharacterID(c domain.CharacterID) int64 {
	return c.Value()
}

func decodeCharacterID(v int64) domain.CharacterID {
	return domain.CharacterIDOf(v)
}

// toRow 將 domain 帳戶轉成資料列；CreatedAt/ModifiedAt 交給 GORM 自動寫入
func toRow(a *domain.Account) *sqlAccount {
	return &sqlAccount{
		ID:      a.ID().Value(),
		CharID:  encodeCharacterID(a.OwnerID()),
		Balance: encodeMoney(a.Balance()),
		Version: a.Version(),
	}
}

// fromRow 將資料列還原為 domain 帳戶
func fromRow(row *sqlAccount) *domain.Account {
	return domain.RestoreAccount(
		domain.AccountID(row.ID),
		decodeCharacterID(row.CharID),
		decodeMoney(row.Balance),
		time.UnixMilli(row.CreatedAt),
		time.UnixMilli(row.ModifiedAt),
		row.Version,
	)
}

func fromRows(rows []sqlAccount) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, fromRow(&rows[i]))
	}
	return accounts
}
