package apierror

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 錯誤中使用 JSON 欄位名稱
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSON 解析請求內容並驗證
//
// 語法錯誤只回報第一個 (Unparseable)；其餘錯誤逐欄位收集:
// 不認得的欄位、型別錯誤、驗證錯誤合併成同一個集合一次回傳。
// 型別錯誤的欄位不再做驗證，避免同一欄位重複回報
//
// 參數:
//
//	data: 請求內容
//	v: 目標結構 (需為 struct 指標)
//
// 回傳:
//
//	error: nil 或 domain.Problems
func DecodeJSON(data []byte, v any) error {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("apierror: decode target must be a pointer to struct, got %T", v)
	}

	members, err := decodeObject(data)
	if err != nil {
		return domain.Problems{translateDecodeError(data, err)}
	}

	fields := jsonFields(target.Elem().Type())
	var problems domain.Problems
	failed := make(map[string]bool)
	for _, m := range members {
		index, ok := fields[m.name]
		if !ok {
			problems = problems.Add(domain.UnknownProperty{Property: m.name})
			continue
		}
		field := target.Elem().FieldByIndex(index)
		if err := json.Unmarshal(m.value, field.Addr().Interface()); err != nil {
			failed[m.name] = true
			problems = problems.Add(fieldDecodeProblem(m.name, field.Type(), err))
		}
	}
	for _, p := range validationProblems(v, failed) {
		problems = problems.Add(p)
	}
	return problems.Err()
}

// member JSON 物件中的一個欄位，保留原始內容待逐欄位解析
type member struct {
	name  string
	value json.RawMessage
}

// decodeObject 依出現順序讀出頂層物件的欄位
// 頂層不是物件時回傳 *json.UnmarshalTypeError；之後只允許空白
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		// null 視為空物件
		return nil, expectEnd(dec)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &json.UnmarshalTypeError{
			Value:  jsonKind(tok),
			Type:   reflect.TypeOf((*map[string]any)(nil)).Elem(),
			Offset: dec.InputOffset(),
		}
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{name: name, value: value})
	}
	// 結尾的 '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, expectEnd(dec)
}

// expectEnd 只允許一個 JSON 值
func expectEnd(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &json.SyntaxError{Offset: dec.InputOffset()}
	}
	return nil
}

func jsonKind(tok json.Token) string {
	switch tok.(type) {
	case json.Delim:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "number"
	}
}

// jsonFields JSON 欄位名稱對應的 struct 欄位
func jsonFields(t reflect.Type) map[string][]int {
	fields := make(map[string][]int, t.NumField())
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		fields[name] = f.Index
	}
	return fields
}

func fieldDecodeProblem(name string, t reflect.Type, err error) domain.Problem {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := name
		if typeErr.Field != "" {
			field = name + "." + typeErr.Field
		}
		return domain.TypeError{
			Field:        field,
			Value:        typeErr.Value,
			ExpectedType: expectedTypeName(t),
		}
	}
	return domain.General{Message: fmt.Sprintf("field %q: %v", name, err)}
}

// Validate 依 validate tag 檢查結構，回傳所有違反項目
func Validate(v any) error {
	return validationProblems(v, nil).Err()
}

// validationProblems 驗證結構，skip 中的欄位 (JSON 名稱) 不回報
func validationProblems(v any, skip map[string]bool) domain.Problems {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Problems{domain.General{Message: err.Error()}}
	}
	var problems domain.Problems
	for _, fe := range fieldErrs {
		if skip[fe.Field()] {
			continue
		}
		problems = problems.Add(translateFieldError(fe))
	}
	return problems
}

func translateFieldError(fe validator.FieldError) domain.Problem {
	switch {
	case fe.Field() == "charId" && fe.Tag() == "required":
		return domain.CharacterIDRequired{}
	case fe.Field() == "balance" && fe.Tag() == "min":
		return domain.InsufficientFunds{}
	default:
		return domain.General{Message: fmt.Sprintf("field %q failed validation %q", fe.Field(), fe.Tag())}
	}
}

func translateDecodeError(data []byte, err error) domain.Problem {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return unparseableAt(data, 0)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return unparseableAt(data, int64(len(data)))
	case errors.As(err, &syntaxErr):
		return unparseableAt(data, syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return domain.TypeError{
			Field:        typeErr.Field,
			Value:        typeErr.Value,
			ExpectedType: expectedTypeName(typeErr.Type),
		}
	}
	return domain.General{Message: err.Error()}
}

// unparseableAt 把位移量換算成行號 / 欄號 (從 1 開始) 與字元位移量
func unparseableAt(data []byte, offset int64) domain.Unparseable {
	offset = max(0, min(offset, int64(len(data))))
	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	lineStart := bytes.LastIndexByte(before, '\n') + 1
	return domain.Unparseable{
		Line:       line,
		Column:     utf8.RuneCount(before[lineStart:]) + 1,
		CharOffset: int64(utf8.RuneCount(before)),
		ByteOffset: offset,
	}
}

func expectedTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int64:
		return "long"
	case reflect.Int, reflect.Int32, reflect.Int16, reflect.Int8:
		return "int"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return t.String()
	}
}
