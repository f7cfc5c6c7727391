package mysql

import (
	"context"
	"time"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-rpg-bank/pkg/mysql"
)

// sqlPersonalLoan 對應資料庫的 personal_loan 表
type sqlPersonalLoan struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	APR       float64 `gorm:"column:apr;not null"`
	CreatedAt int64   `gorm:"column:created_at;autoCreateTime:milli"`
}

func (*sqlPersonalLoan) TableName() string {
	return "personal_loan"
}

func loanFromRow(row *sqlPersonalLoan) *domain.PersonalLoan {
	return domain.RestorePersonalLoan(domain.LoanID(row.ID), domain.APR(row.APR), time.UnixMilli(row.CreatedAt))
}

// LoanStore 以 MySQL (GORM) 實作的個人貸款儲存
type LoanStore struct {
	client *mysql.Client
}

func NewLoanStore(client *mysql.Client) *LoanStore {
	return &LoanStore{client: client}
}

// Migrate 建立或更新 personal_loan 表
func (s *LoanStore) Migrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(&sqlPersonalLoan{})
}

// Create 新增貸款
func (s *LoanStore) Create(ctx context.Context, loan *domain.PersonalLoan) (*domain.PersonalLoan, error) {
	row := &sqlPersonalLoan{APR: loan.APR().Value()}
	if err := s.client.DB().WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return loanFromRow(row), nil
}

// ListAll 列出所有貸款
func (s *LoanStore) ListAll(ctx context.Context) ([]*domain.PersonalLoan, error) {
	var rows []sqlPersonalLoan
	if err := s.client.DB().WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	loans := make([]*domain.PersonalLoan, 0, len(rows))
	for i := range rows {
		loans = append(loans, loanFromRow(&rows[i]))
	}
	return loans, nil
}

var _ usecase.LoanStore = (*LoanStore)(nil)
