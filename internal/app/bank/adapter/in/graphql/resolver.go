package graphql

import (
	"context"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/apierror"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

// Resolver Query 與 Mutation 的根 resolver
type Resolver struct {
	accounts usecase.Accounts
	loans    usecase.Loans
}

type accountResolver struct {
	account *domain.Account
}

func (r *accountResolver) ID() Long      { return Long(r.account.ID().Value()) }
func (r *accountResolver) CharID() Long  { return Long(r.account.OwnerID().Value()) }
func (r *accountResolver) Balance() Long { return Long(r.account.Balance().Amount()) }

func toResolvers(accounts []*domain.Account) []*accountResolver {
	resolvers := make([]*accountResolver, 0, len(accounts))
	for _, a := range accounts {
		resolvers = append(resolvers, &accountResolver{account: a})
	}
	return resolvers
}

// Accounts 所有帳戶
func (r *Resolver) Accounts(ctx context.Context) ([]*accountResolver, error) {
	accounts, err := r.accounts.GetAllAccounts(ctx)
	if err != nil {
		return nil, newError(err)
	}
	return toResolvers(accounts), nil
}

type accountsPageArgs struct {
	PageNumber   int32
	PageLength   int32
	SortBy       string
	IsDescending bool
}

// AccountsPage 分頁查詢
func (r *Resolver) AccountsPage(ctx context.Context, args accountsPageArgs) ([]*accountResolver, error) {
	accounts, err := r.accounts.GetAccountsPage(ctx, int(args.PageNumber), int(args.PageLength), args.SortBy, args.IsDescending)
	if err != nil {
		return nil, newError(err)
	}
	return toResolvers(accounts), nil
}

// Account 以帳戶 ID 查詢
func (r *Resolver) Account(ctx context.Context, args struct{ ID Long }) (*accountResolver, error) {
	account, err := r.accounts.GetAccountByID(ctx, domain.AccountID(args.ID))
	if err != nil {
		return nil, newError(err)
	}
	return &accountResolver{account: account}, nil
}

// AccountOf 以角色 ID 查詢
func (r *Resolver) AccountOf(ctx context.Context, args struct{ CharID Long }) (*accountResolver, error) {
	account, err := r.accounts.GetAccountByOwner(ctx, domain.CharacterIDOf(int64(args.CharID)))
	if err != nil {
		return nil, newError(err)
	}
	return &accountResolver{account: account}, nil
}

type createAnAccountArgs struct {
	CharID  Long
	Balance *Long
}

// CreateAnAccount 建立帳戶，balance 省略時為 0
func (r *Resolver) CreateAnAccount(ctx context.Context, args createAnAccountArgs) (*accountResolver, error) {
	var balance *domain.Money
	if args.Balance != nil {
		m := domain.MoneyFrom(int64(*args.Balance))
		balance = &m
	}
	account, err := r.accounts.CreateAccount(ctx, domain.CharacterIDOf(int64(args.CharID)), balance)
	if err != nil {
		return nil, newError(err)
	}
	return &accountResolver{account: account}, nil
}

type changeBalanceArgs struct {
	ID    Long
	Delta Long
}

// ChangeBalance 變更餘額並回傳新餘額
func (r *Resolver) ChangeBalance(ctx context.Context, args changeBalanceArgs) (Long, error) {
	balance, err := r.accounts.ChangeBalance(ctx, domain.AccountID(args.ID), domain.MoneyFrom(int64(args.Delta)))
	if err != nil {
		return 0, newError(err)
	}
	return Long(balance.Amount()), nil
}

type loanResolver struct {
	loan *domain.PersonalLoan
}

func (r *loanResolver) ID() Long     { return Long(r.loan.ID().Value()) }
func (r *loanResolver) APR() float64 { return r.loan.APR().Value() }

// PersonalLoans 所有個人貸款
func (r *Resolver) PersonalLoans(ctx context.Context) ([]*loanResolver, error) {
	loans, err := r.loans.GetAllPersonalLoans(ctx)
	if err != nil {
		return nil, newError(err)
	}
	resolvers := make([]*loanResolver, 0, len(loans))
	for _, l := range loans {
		resolvers = append(resolvers, &loanResolver{loan: l})
	}
	return resolvers, nil
}

// CreatePersonalLoan 以年利率建立個人貸款
func (r *Resolver) CreatePersonalLoan(ctx context.Context, args struct{ APR float64 }) (*loanResolver, error) {
	loan, err := r.loans.CreatePersonalLoan(ctx, args.APR)
	if err != nil {
		return nil, newError(err)
	}
	return &loanResolver{loan: loan}, nil
}

// Error GraphQL 錯誤，extensions 帶有與 REST 相同格式的錯誤集合
type Error struct {
	status   int
	response apierror.Response
	message  string
}

func newError(err error) *Error {
	status, resp := apierror.Translate(err)
	msg := err.Error()
	if domain.ProblemsOf(err) == nil {
		// 不洩漏內部錯誤
		msg = resp.Errors[0]["message"].(string)
	}
	return &Error{status: status, response: resp, message: msg}
}

func (e *Error) Error() string {
	return e.message
}

// Extensions 實作 graphql-go 的 ResolverError
func (e *Error) Extensions() map[string]any {
	return map[string]any{
		"status": e.status,
		"errors": e.response.Errors,
	}
}
