package grpc

import (
	"context"
	"log"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

// AccountServer AccountServiceServer 的實作
type AccountServer struct {
	accounts usecase.Accounts
	logger   *log.Logger
}

// NewAccountServer 建立 AccountServer
func NewAccountServer(accounts usecase.Accounts, logger *log.Logger) *AccountServer {
	if logger == nil {
		logger = log.Default()
	}
	return &AccountServer{accounts: accounts, logger: logger}
}

// fail 轉成 gRPC status；非 Problem 的錯誤先記錄原始內容 (回傳給客戶端的訊息不含細節)
func (s *AccountServer) fail(ctx context.Context, err error) error {
	if domain.ProblemsOf(err) == nil {
		s.logger.Printf("[%s] %v", RequestID(ctx), err)
	}
	return toStatus(err)
}

// CreateAccount 建立帳戶，charId 必填，balance 省略時為 0
func (s *AccountServer) CreateAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req, "charId", "balance")
	charID, hasCharID := f.intField("charId")
	if !hasCharID && !f.has("charId") {
		f.problems = f.problems.Add(domain.CharacterIDRequired{})
	}
	var balance *domain.Money
	if amount, ok := f.intField("balance"); ok {
		if amount < 0 {
			f.problems = f.problems.Add(domain.InsufficientFunds{})
		}
		m := domain.MoneyFrom(amount)
		balance = &m
	}
	if err := f.problems.Err(); err != nil {
		return nil, s.fail(ctx, err)
	}
	if !hasCharID {
		// charId: null
		return nil, s.fail(ctx, domain.CharacterIDRequired{})
	}

	account, err := s.accounts.CreateAccount(ctx, domain.CharacterIDOf(charID), balance)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return accountStruct(account), nil
}

// GetAccount 以帳戶 ID 查詢
func (s *AccountServer) GetAccount(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	account, err := s.accounts.GetAccountByID(ctx, domain.AccountID(req.GetValue()))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return accountStruct(account), nil
}

// GetAccountByOwner 以角色 ID 查詢
func (s *AccountServer) GetAccountByOwner(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	account, err := s.accounts.GetAccountByOwner(ctx, domain.CharacterIDOf(req.GetValue()))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return accountStruct(account), nil
}

// ChangeBalance 變更餘額並回傳新餘額
func (s *AccountServer) ChangeBalance(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error) {
	f := newFields(req, "id", "delta")
	id, hasID := f.intField("id")
	delta, hasDelta := f.intField("delta")
	if !hasID && !f.has("id") {
		f.problems = f.problems.Add(domain.General{Message: "id is required"})
	}
	if !hasDelta && !f.has("delta") {
		f.problems = f.problems.Add(domain.General{Message: "delta is required"})
	}
	if err := f.problems.Err(); err != nil {
		return nil, s.fail(ctx, err)
	}
	if !hasID || !hasDelta {
		return nil, s.fail(ctx, domain.General{Message: "id and delta must not be null"})
	}

	balance, err := s.accounts.ChangeBalance(ctx, domain.AccountID(id), domain.MoneyFrom(delta))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return wrapperspb.Int64(balance.Amount()), nil
}

// ListAccounts 分頁查詢，參數預設值與 REST 相同
func (s *AccountServer) ListAccounts(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	f := newFields(req, "pageNumber", "pageLength", "sortBy", "isDescending")
	pageNumber := int64(usecase.DefaultPageNumber)
	if v, ok := f.intField("pageNumber"); ok {
		pageNumber = v
	}
	pageLength := int64(usecase.DefaultPageLength)
	if v, ok := f.intField("pageLength"); ok {
		pageLength = v
	}
	sortBy := string(usecase.DefaultSortField)
	if v, ok := f.stringField("sortBy"); ok {
		sortBy = v
	}
	descending := true
	if v, ok := f.boolField("isDescending"); ok {
		descending = v
	}
	if err := f.problems.Err(); err != nil {
		return nil, s.fail(ctx, err)
	}

	accounts, err := s.accounts.GetAccountsPage(ctx, int(pageNumber), int(pageLength), sortBy, descending)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(accounts))}
	for _, a := range accounts {
		list.Values = append(list.Values, structpb.NewStructValue(accountStruct(a)))
	}
	return list, nil
}

var _ AccountServiceServer = (*AccountServer)(nil)
