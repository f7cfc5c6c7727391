package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

const (
	tracerName = "github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"

	// DefaultMaxAttempts 樂觀鎖衝突時 ChangeBalance 最多嘗試次數
	DefaultMaxAttempts = 3
)

// AccountService 帳戶業務邏輯
//
// 本身無狀態、不持有鎖；同一帳戶的並發修改由儲存層的 Version 序列化
type AccountService struct {
	store       AccountStore
	logger      *log.Logger
	tracer      trace.Tracer
	maxAttempts int
}

// Option AccountService 設定選項
type Option func(*AccountService)

// WithLogger 設定 logger (預設 log.Default())
func WithLogger(logger *log.Logger) Option {
	return func(s *AccountService) {
		s.logger = logger
	}
}

// WithMaxAttempts 設定樂觀鎖衝突的最多嘗試次數 (至少 1)
func WithMaxAttempts(n int) Option {
	return func(s *AccountService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewAccountService 建立 AccountService
func NewAccountService(store AccountStore, opts ...Option) *AccountService {
	s := &AccountService{
		store:       store,
		logger:      log.Default(),
		tracer:      otel.Tracer(tracerName),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount 為角色建立帳戶
//
// 參數:
//
//	ownerID: 擁有者角色 ID
//	balance: 初始餘額，nil 代表 0
//
// 回傳:
//
//	*domain.Account: 已儲存的帳戶
//	error: domain.InsufficientFunds (初始餘額為負) 或 domain.AccountAlreadyExists
func (s *AccountService) CreateAccount(ctx context.Context, ownerID domain.CharacterID, balance *domain.Money) (*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.CreateAccount",
		trace.WithAttributes(attribute.Int64("bank.owner_id", ownerID.Value())))
	defer span.End()

	initial := domain.ZeroMoney
	if balance != nil {
		initial = *balance
	}

	account, err := domain.NewAccount(ownerID, initial)
	if err != nil {
		s.logger.Printf("Attempted to create account with balance %s for %s", initial, ownerID)
		return nil, recordError(span, err)
	}

	created, err := s.store.Create(ctx, account)
	if err != nil {
		if errors.Is(err, ErrDuplicateOwner) {
			s.logger.Printf("Attempted to create duplicate account for %s", ownerID)
			return nil, recordError(span, domain.AccountAlreadyExists{OwnerID: ownerID})
		}
		return nil, recordError(span, fmt.Errorf("create account: %w", err))
	}

	s.logger.Printf("Created %s", created)
	return created, nil
}

// GetAccountByID 以帳戶 ID 查詢，找不到時回傳 domain.NoSuchAccountID
func (s *AccountService) GetAccountByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.GetAccountByID",
		trace.WithAttributes(attribute.Int64("bank.account_id", id.Value())))
	defer span.End()

	account, err := s.findByID(ctx, id)
	if err != nil {
		return nil, recordError(span, err)
	}
	return account, nil
}

// GetAccountByOwner 以擁有者查詢，找不到時回傳 domain.UnknownCharacterID
func (s *AccountService) GetAccountByOwner(ctx context.Context, ownerID domain.CharacterID) (*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.GetAccountByOwner",
		trace.WithAttributes(attribute.Int64("bank.owner_id", ownerID.Value())))
	defer span.End()

	accounts, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("find account by owner: %w", err))
	}
	switch len(accounts) {
	case 0:
		return nil, recordError(span, domain.UnknownCharacterID{OwnerID: ownerID})
	case 1:
		return accounts[0], nil
	default:
		return nil, recordError(span, fmt.Errorf("%w: %s has %d accounts", ErrOwnerInvariant, ownerID, len(accounts)))
	}
}

// GetAccountsPage 分頁查詢帳戶
//
// 排序欄位先檢查 (不認得時不論分頁參數都回傳 domain.UnknownProperty)，
// 再檢查分頁參數；沒有資料 (含位移量超出 int 範圍) 時回傳空 slice
func (s *AccountService) GetAccountsPage(ctx context.Context, pageNumber, pageLength int, sortBy string, descending bool) ([]*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.GetAccountsPage",
		trace.WithAttributes(
			attribute.Int("bank.page_number", pageNumber),
			attribute.Int("bank.page_length", pageLength),
			attribute.String("bank.sort_by", sortBy),
			attribute.Bool("bank.descending", descending),
		))
	defer span.End()

	field, err := ParseSortField(sortBy)
	if err != nil {
		return nil, recordError(span, err)
	}

	var problems domain.Problems
	if pageNumber < 0 {
		problems = problems.Add(domain.TypeError{Field: "pageNumber", Value: strconv.Itoa(pageNumber), ExpectedType: "non-negative int"})
	}
	if pageLength <= 0 {
		problems = problems.Add(domain.TypeError{Field: "pageLength", Value: strconv.Itoa(pageLength), ExpectedType: "positive int"})
	}
	if err := problems.Err(); err != nil {
		return nil, recordError(span, err)
	}

	page := PageRequest{
		PageNumber: pageNumber,
		PageLength: pageLength,
		SortBy:     field,
		Descending: descending,
	}
	if _, ok := page.Offset(); !ok {
		return []*domain.Account{}, nil
	}

	accounts, err := s.store.List(ctx, page)
	if err != nil {
		if errors.Is(err, ErrUnknownSortField) {
			return nil, recordError(span, domain.UnknownProperty{Property: sortBy})
		}
		return nil, recordError(span, fmt.Errorf("list accounts: %w", err))
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	return accounts, nil
}

// GetAllAccounts 列出所有帳戶
func (s *AccountService) GetAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.GetAllAccounts")
	defer span.End()

	accounts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("list all accounts: %w", err))
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	return accounts, nil
}

// ChangeBalance 變更帳戶餘額並回傳新餘額
//
// 讀取 -> 驗證 -> 寫入；寫入時若 Version 已過期則重新讀取，
// 最多嘗試 maxAttempts 次，仍衝突時回傳包裝 ErrStaleAccount 的錯誤
//
// 回傳:
//
//	domain.Money: 新餘額
//	error: domain.NoSuchAccountID 或 domain.InsufficientFunds
func (s *AccountService) ChangeBalance(ctx context.Context, id domain.AccountID, delta domain.Money) (domain.Money, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.ChangeBalance",
		trace.WithAttributes(
			attribute.Int64("bank.account_id", id.Value()),
			attribute.Int64("bank.delta", delta.Amount()),
		))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		account, err := s.findByID(ctx, id)
		if err != nil {
			return 0, recordError(span, err)
		}
		if _, err := account.ChangeBalance(delta); err != nil {
			return 0, recordError(span, err)
		}

		updated, err := s.store.Update(ctx, account)
		if err == nil {
			return updated.Balance(), nil
		}
		switch {
		case errors.Is(err, ErrStaleAccount):
			lastErr = err
			span.AddEvent("stale account version", trace.WithAttributes(attribute.Int("bank.attempt", attempt)))
			continue
		case errors.Is(err, ErrAccountNotFound):
			return 0, recordError(span, domain.NoSuchAccountID{ID: id})
		default:
			return 0, recordError(span, fmt.Errorf("update account %d: %w", id, err))
		}
	}
	return 0, recordError(span, fmt.Errorf("change balance of account %d after %d attempts: %w", id, s.maxAttempts, lastErr))
}

func (s *AccountService) findByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, domain.NoSuchAccountID{ID: id}
		}
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return account, nil
}

// recordError 在 span 上記錄錯誤並原樣回傳
func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	if domain.ProblemsOf(err) == nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
