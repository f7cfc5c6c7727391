package usecase

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

// LoanStore 個人貸款的持久化儲存
type LoanStore interface {
	// Create 新增貸款並分配 ID
	Create(ctx context.Context, loan *domain.PersonalLoan) (*domain.PersonalLoan, error)
	// ListAll 列出所有貸款 (依 ID 遞增)
	ListAll(ctx context.Context) ([]*domain.PersonalLoan, error)
}

// Loans 個人貸款對外提供的操作
type Loans interface {
	CreatePersonalLoan(ctx context.Context, apr float64) (*domain.PersonalLoan, error)
	GetAllPersonalLoans(ctx context.Context) ([]*domain.PersonalLoan, error)
}

// LoanService 個人貸款業務邏輯
type LoanService struct {
	store  LoanStore
	logger *log.Logger
	tracer trace.Tracer
}

// NewLoanService 建立 LoanService，logger 為 nil 時使用 log.Default()
func NewLoanService(store LoanStore, logger *log.Logger) *LoanService {
	if logger == nil {
		logger = log.Default()
	}
	return &LoanService{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// CreatePersonalLoan 以年利率建立個人貸款
//
// 參數:
//
//	apr: 小數形式的年利率 (0.1 代表 10%)
//
// 回傳:
//
//	*domain.PersonalLoan: 已儲存的貸款
//	error: domain.General (APR 為負)
func (s *LoanService) CreatePersonalLoan(ctx context.Context, apr float64) (*domain.PersonalLoan, error) {
	ctx, span := s.tracer.Start(ctx, "LoanService.CreatePersonalLoan",
		trace.WithAttributes(attribute.Float64("bank.apr", apr)))
	defer span.End()

	rate, err := domain.NewAPR(apr)
	if err != nil {
		s.logger.Printf("Attempted to create personal loan with invalid APR %v", apr)
		return nil, recordError(span, err)
	}
	loan, err := domain.NewPersonalLoan(rate)
	if err != nil {
		return nil, recordError(span, err)
	}

	created, err := s.store.Create(ctx, loan)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("create personal loan: %w", err))
	}
	s.logger.Printf("Created %s", created)
	return created, nil
}

// GetAllPersonalLoans 列出所有個人貸款
func (s *LoanService) GetAllPersonalLoans(ctx context.Context) ([]*domain.PersonalLoan, error) {
	ctx, span := s.tracer.Start(ctx, "LoanService.GetAllPersonalLoans")
	defer span.End()

	loans, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("list personal loans: %w", err))
	}
	if loans == nil {
		loans = []*domain.PersonalLoan{}
	}
	return loans, nil
}

var _ Loans = (*LoanService)(nil)
