package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/apierror"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

// AccountHandler /v1/accounts 的 HTTP handler
// 錯誤一律回傳給 errorHandler 統一轉換與記錄
type AccountHandler struct {
	accounts usecase.Accounts
}

// NewAccountHandler 建立 AccountHandler
func NewAccountHandler(accounts usecase.Accounts) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register 註冊路由 (/of/:charId 必須在 /:id 之前)
func (h *AccountHandler) Register(router fiber.Router) {
	accounts := router.Group("/accounts")
	accounts.Post("/", h.CreateAccount)
	accounts.Get("/", h.GetAccountsPage)
	accounts.Get("/of/:charId", h.GetAccountByOwner)
	accounts.Get("/:id", h.GetAccountByID)
	accounts.Patch("/:id", h.ChangeBalance)
}

// CreateAccount POST /v1/accounts
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountDTO
	if err := apierror.DecodeJSON(c.Body(), &req); err != nil {
		return err
	}

	var balance *domain.Money
	if req.Balance != nil {
		m := domain.MoneyFrom(*req.Balance)
		balance = &m
	}
	account, err := h.accounts.CreateAccount(c.UserContext(), domain.CharacterIDOf(*req.CharID), balance)
	if err != nil {
		return err
	}
	return c.JSON(toDTO(account))
}

// GetAccountsPage GET /v1/accounts?pageNumber=&pageLength=&sortBy=&sortOrder=
//
// sortOrder 只有 "DESC" 代表遞減 (預設)，其他值皆為遞增
func (h *AccountHandler) GetAccountsPage(c *fiber.Ctx) error {
	var problems domain.Problems
	pageNumber, p := queryInt(c, "pageNumber", usecase.DefaultPageNumber)
	if p != nil {
		problems = problems.Add(p)
	}
	pageLength, p := queryInt(c, "pageLength", usecase.DefaultPageLength)
	if p != nil {
		problems = problems.Add(p)
	}
	if err := problems.Err(); err != nil {
		return err
	}

	sortBy := c.Query("sortBy", string(usecase.DefaultSortField))
	descending := c.Query("sortOrder", "DESC") == "DESC"

	accounts, err := h.accounts.GetAccountsPage(c.UserContext(), pageNumber, pageLength, sortBy, descending)
	if err != nil {
		return err
	}
	return c.JSON(toDTOs(accounts))
}

// GetAccountByID GET /v1/accounts/:id
func (h *AccountHandler) GetAccountByID(c *fiber.Ctx) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return err
	}
	account, err := h.accounts.GetAccountByID(c.UserContext(), domain.AccountID(id))
	if err != nil {
		return err
	}
	return c.JSON(toDTO(account))
}

// GetAccountByOwner GET /v1/accounts/of/:charId
func (h *AccountHandler) GetAccountByOwner(c *fiber.Ctx) error {
	charID, err := paramInt64(c, "charId")
	if err != nil {
		return err
	}
	account, err := h.accounts.GetAccountByOwner(c.UserContext(), domain.CharacterIDOf(charID))
	if err != nil {
		return err
	}
	return c.JSON(toDTO(account))
}

// ChangeBalance PATCH /v1/accounts/:id {"delta": n}
func (h *AccountHandler) ChangeBalance(c *fiber.Ctx) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return err
	}
	var req ChangeBalanceDTO
	if err := apierror.DecodeJSON(c.Body(), &req); err != nil {
		return err
	}
	balance, err := h.accounts.ChangeBalance(c.UserContext(), domain.AccountID(id), domain.MoneyFrom(*req.Delta))
	if err != nil {
		return err
	}
	return c.JSON(BalanceDTO{Balance: balance.Amount()})
}

func queryInt(c *fiber.Ctx, key string, def int) (int, domain.Problem) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.TypeError{Field: key, Value: raw, ExpectedType: "int"}
	}
	return v, nil
}

func paramInt64(c *fiber.Ctx, key string) (int64, error) {
	raw := c.Params(key)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.TypeError{Field: key, Value: raw, ExpectedType: "long"}
	}
	return v, nil
}
