// Package graphql 帳戶的 GraphQL 介面
package graphql

import (
	"net/http"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-go/trace/otel"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

const schemaSDL = `
scalar Long

schema {
	query: Query
	mutation: Mutation
}

type Query {
	accounts: [Account!]!
	accountsPage(pageNumber: Int = 0, pageLength: Int = 10, sortBy: String = "balance", isDescending: Boolean = true): [Account!]!
	account(id: Long!): Account!
	accountOf(charId: Long!): Account!
	personalLoans: [PersonalLoan!]!
}

type Mutation {
	createAnAccount(charId: Long!, balance: Long): Account!
	changeBalance(id: Long!, delta: Long!): Long!
	createPersonalLoan(apr: Float!): PersonalLoan!
}

type Account {
	id: Long!
	charId: Long!
	balance: Long!
}

# apr 為小數形式的年利率 (0.1 代表 10%)
type PersonalLoan {
	id: Long!
	apr: Float!
}
`

// maxDepth 查詢最大深度
const maxDepth = 8

// NewSchema 解析 schema 並綁定 resolver
func NewSchema(accounts usecase.Accounts, loans usecase.Loans) *graphqlgo.Schema {
	return graphqlgo.MustParseSchema(schemaSDL, &Resolver{accounts: accounts, loans: loans},
		graphqlgo.MaxDepth(maxDepth),
		graphqlgo.Tracer(otel.DefaultTracer()),
	)
}

// NewHandler 回傳處理 POST /graphql 的 http.Handler
func NewHandler(accounts usecase.Accounts, loans usecase.Loans) http.Handler {
	return &relay.Handler{Schema: NewSchema(accounts, loans)}
}
