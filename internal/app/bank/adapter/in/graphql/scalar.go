package graphql

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Long 64 位元整數 scalar (GraphQL 內建 Int 只有 32 位元)
type Long int64

// ImplementsGraphQLType 對應 schema 中的 scalar Long
func (Long) ImplementsGraphQLType(name string) bool {
	return name == "Long"
}

// UnmarshalGraphQL 接受查詢字面值或 JSON 變數
func (l *Long) UnmarshalGraphQL(input any) error {
	switch v := input.(type) {
	case int32:
		*l = Long(v)
	case int64:
		*l = Long(v)
	case int:
		*l = Long(v)
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return fmt.Errorf("Long cannot represent %v", v)
		}
		*l = Long(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("Long cannot represent %s", v)
		}
		*l = Long(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("Long cannot represent %q", v)
		}
		*l = Long(n)
	default:
		return fmt.Errorf("Long cannot represent %T", input)
	}
	return nil
}

// MarshalJSON 輸出為 JSON 數字
func (l Long) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(l), 10), nil
}
