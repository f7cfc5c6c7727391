package grpc

import (
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

// maxSafeInteger structpb 數字為 float64，超過此值無法精確表示整數
const maxSafeInteger = 1 << 53

// fields 讀取 structpb.Struct 欄位並收集所有錯誤
type fields struct {
	values   map[string]*structpb.Value
	problems domain.Problems
}

// newFields 檢查未定義的欄位
func newFields(in *structpb.Struct, allowed ...string) *fields {
	f := &fields{values: in.GetFields()}
	for name := range f.values {
		known := false
		for _, a := range allowed {
			if a == name {
				known = true
				break
			}
		}
		if !known {
			f.problems = f.problems.Add(domain.UnknownProperty{Property: name})
		}
	}
	return f
}

// intField 讀取整數欄位，ok 為 false 代表欄位不存在或型別錯誤
func (f *fields) intField(name string) (int64, bool) {
	v, present := f.values[name]
	if !present {
		return 0, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return 0, false
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		f.problems = f.problems.Add(domain.TypeError{Field: name, Value: describe(v), ExpectedType: "long"})
		return 0, false
	}
	x := n.NumberValue
	if x != math.Trunc(x) || math.Abs(x) > maxSafeInteger {
		f.problems = f.problems.Add(domain.TypeError{Field: name, Value: describe(v), ExpectedType: "long"})
		return 0, false
	}
	return int64(x), true
}

func (f *fields) stringField(name string) (string, bool) {
	v, present := f.values[name]
	if !present {
		return "", false
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		f.problems = f.problems.Add(domain.TypeError{Field: name, Value: describe(v), ExpectedType: "string"})
		return "", false
	}
	return s.StringValue, true
}

func (f *fields) boolField(name string) (bool, bool) {
	v, present := f.values[name]
	if !present {
		return false, false
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		f.problems = f.problems.Add(domain.TypeError{Field: name, Value: describe(v), ExpectedType: "boolean"})
		return false, false
	}
	return b.BoolValue, true
}

func (f *fields) has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// describe 錯誤訊息中的欄位值
func describe(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'g', -1, 64)
	case *structpb.Value_StringValue:
		return strconv.Quote(k.StringValue)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	case *structpb.Value_NullValue:
		return "null"
	case *structpb.Value_ListValue:
		return "array"
	case *structpb.Value_StructValue:
		return "object"
	default:
		return "unknown"
	}
}

// accountStruct 帳戶轉成與 REST 相同欄位的 Struct
func accountStruct(a *domain.Account) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":      structpb.NewNumberValue(float64(a.ID().Value())),
		"charId":  structpb.NewNumberValue(float64(a.OwnerID().Value())),
		"balance": structpb.NewNumberValue(float64(a.Balance().Amount())),
	}}
}
