package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-rpg-bank/pkg/mysql"
)

// mysqlDuplicateEntry MySQL 違反唯一索引的錯誤碼
const mysqlDuplicateEntry = 1062

// sortColumns 排序欄位對應的資料表欄位
var sortColumns = map[usecase.SortField]string{
	usecase.SortByID:         "id",
	usecase.SortByOwner:      "cid",
	usecase.SortByBalance:    "balance",
	usecase.SortByCreatedAt:  "created_at",
	usecase.SortByModifiedAt: "modified_at",
}

// AccountStore 以 MySQL (GORM) 實作的帳戶儲存
type AccountStore struct {
	client *mysql.Client
}

func NewAccountStore(client *mysql.Client) *AccountStore {
	return &AccountStore{
		client: client,
	}
}

// Migrate 建立或更新 account 表
func (s *AccountStore) Migrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(&sqlAccount{})
}

// Create 新增帳戶，cid 重複時回傳 usecase.ErrDuplicateOwner
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	row := toRow(account)
	row.ID = 0
	row.Version = 0
	if err := s.client.DB().WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", usecase.ErrDuplicateOwner, account.OwnerID())
		}
		return nil, err
	}
	return fromRow(row), nil
}

// Update 以樂觀鎖寫回餘額
//
// UPDATE ... WHERE id = ? AND version = ?，沒有資料列被更新時
// 再查一次判斷是帳戶不存在還是版本過期
func (s *AccountStore) Update(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	db := s.client.DB().WithContext(ctx)
	res := db.Model(&sqlAccount{}).
		Where("id = ? AND version = ?", account.ID().Value(), account.Version()).
		Updates(map[string]any{
			"balance":     encodeMoney(account.Balance()),
			"version":     gorm.Expr("version + 1"),
			"modified_at": time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.FindByID(ctx, account.ID()); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: account %d version %d", usecase.ErrStaleAccount, account.ID(), account.Version())
	}
	return s.FindByID(ctx, account.ID())
}

// FindByID 以 ID 查詢
func (s *AccountStore) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	var row sqlAccount
	err := s.client.DB().WithContext(ctx).Where("id = ?", id.Value()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", usecase.ErrAccountNotFound, id)
		}
		return nil, err
	}
	return fromRow(&row), nil
}

// FindByOwner 以擁有者查詢
func (s *AccountStore) FindByOwner(ctx context.Context, ownerID domain.CharacterID) ([]*domain.Account, error) {
	var rows []sqlAccount
	err := s.client.DB().WithContext(ctx).
		Where("cid = ?", encodeCharacterID(ownerID)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// List 分頁排序查詢，相同排序值時以 id 遞增排列
func (s *AccountStore) List(ctx context.Context, page usecase.PageRequest) ([]*domain.Account, error) {
	column, ok := sortColumns[page.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", usecase.ErrUnknownSortField, page.SortBy)
	}
	offset, ok := page.Offset()
	if !ok {
		return []*domain.Account{}, nil
	}
	var rows []sqlAccount
	err := s.client.DB().WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: page.Descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(offset).
		Limit(page.PageLength).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// ListAll 列出所有帳戶
func (s *AccountStore) ListAll(ctx context.Context) ([]*domain.Account, error) {
	var rows []sqlAccount
	if err := s.client.DB().WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// isDuplicateKey 判斷是否違反唯一索引
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

var _ usecase.AccountStore = (*AccountStore)(nil)
