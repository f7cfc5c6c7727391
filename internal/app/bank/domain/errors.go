package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Code 錯誤種類，每種都有固定的編號與名稱，回傳給客戶端解析用
type Code int

const (
	// CodeGeneral 未分類錯誤
	CodeGeneral Code = 0
	// CodeUnparseable 請求內容無法解析
	CodeUnparseable Code = 20
	// CodeUnknownProperty 請求引用了未定義的欄位
	CodeUnknownProperty Code = 100
	// CodeTypeError 請求欄位型別錯誤
	CodeTypeError Code = 110
	// CodeAccountAlreadyExists 角色已有帳戶
	CodeAccountAlreadyExists Code = 1000
	// CodeNoSuchAccountID 找不到帳戶 ID
	CodeNoSuchAccountID Code = 1001
	// CodeCharacterIDRequired 缺少角色 ID
	CodeCharacterIDRequired Code = 1002
	// CodeUnknownCharacterID 找不到角色 ID 對應的帳戶
	CodeUnknownCharacterID Code = 1003
	// CodeInsufficientFunds 餘額不足
	CodeInsufficientFunds Code = 1010
)

var codeNames = map[Code]string{
	CodeGeneral:              "General error",
	CodeUnparseable:          "Unparseable",
	CodeUnknownProperty:      "Unknown property",
	CodeTypeError:            "Type error",
	CodeAccountAlreadyExists: "Account already exists",
	CodeNoSuchAccountID:      "No such account ID",
	CodeCharacterIDRequired:  "Character ID required",
	CodeUnknownCharacterID:   "Character ID not found",
	CodeInsufficientFunds:    "Insufficient funds",
}

// Number 錯誤編號
func (c Code) Number() int {
	return int(c)
}

// Name 錯誤名稱
func (c Code) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[CodeGeneral]
}

func (c Code) String() string {
	return c.Name()
}

// Problem 封閉的錯誤種類集合，每個種類只帶自己需要的資料
// 只有本 package 的型別可以實作 (problem 為未匯出方法)
type Problem interface {
	error
	Code() Code
	problem()
}

// General 未分類錯誤
type General struct {
	Message string
}

// Unparseable 請求內容不是合法的結構化資料
// 行號、欄號從 1 開始；位移量從 0 開始
type Unparseable struct {
	Line       int
	Column     int
	CharOffset int64
	ByteOffset int64
}

// UnknownProperty 請求引用了未定義的欄位
// PropertyPath 為上層路徑 (頂層欄位時為空字串)
type UnknownProperty struct {
	PropertyPath string
	Property     string
}

// TypeError 請求欄位型別錯誤
type TypeError struct {
	Field        string
	Value        string
	ExpectedType string
}

// AccountAlreadyExists 角色已有帳戶
type AccountAlreadyExists struct {
	OwnerID CharacterID
}

// NoSuchAccountID 找不到帳戶
type NoSuchAccountID struct {
	ID AccountID
}

// CharacterIDRequired 缺少角色 ID
type CharacterIDRequired struct{}

// UnknownCharacterID 找不到角色對應的帳戶
type UnknownCharacterID struct {
	OwnerID CharacterID
}

// InsufficientFunds 餘額不足 (變動後餘額為負)
type InsufficientFunds struct{}

func (General) Code() Code              { return CodeGeneral }
func (Unparseable) Code() Code          { return CodeUnparseable }
func (UnknownProperty) Code() Code      { return CodeUnknownProperty }
func (TypeError) Code() Code            { return CodeTypeError }
func (AccountAlreadyExists) Code() Code { return CodeAccountAlreadyExists }
func (NoSuchAccountID) Code() Code      { return CodeNoSuchAccountID }
func (CharacterIDRequired) Code() Code  { return CodeCharacterIDRequired }
func (UnknownCharacterID) Code() Code   { return CodeUnknownCharacterID }
func (InsufficientFunds) Code() Code    { return CodeInsufficientFunds }

func (General) problem()              {}
func (Unparseable) problem()          {}
func (UnknownProperty) problem()      {}
func (TypeError) problem()            {}
func (AccountAlreadyExists) problem() {}
func (NoSuchAccountID) problem()      {}
func (CharacterIDRequired) problem()  {}
func (UnknownCharacterID) problem()   {}
func (InsufficientFunds) problem()    {}

func (e General) Error() string {
	return e.Message
}

func (e Unparseable) Error() string {
	return fmt.Sprintf("unparseable request at line %d, column %d", e.Line, e.Column)
}

func (e UnknownProperty) Error() string {
	if e.PropertyPath == "" {
		return fmt.Sprintf("unknown property %q", e.Property)
	}
	return fmt.Sprintf("unknown property %q at %s", e.Property, e.PropertyPath)
}

func (e TypeError) Error() string {
	return fmt.Sprintf("field %q has value %s, expected %s", e.Field, e.Value, e.ExpectedType)
}

func (e AccountAlreadyExists) Error() string {
	return fmt.Sprintf("account already exists for %s", e.OwnerID)
}

func (e NoSuchAccountID) Error() string {
	return fmt.Sprintf("no such account ID %d", e.ID)
}

func (CharacterIDRequired) Error() string {
	return "character ID required"
}

func (e UnknownCharacterID) Error() string {
	return fmt.Sprintf("no account for %s", e.OwnerID)
}

func (InsufficientFunds) Error() string {
	return "insufficient funds"
}

// AsProblem 從錯誤鏈中取出 Problem
func AsProblem(err error) (Problem, bool) {
	var p Problem
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}

// Problems 錯誤集合，重複的項目只保留一筆，保持加入順序
// 用於一次回報多個驗證錯誤
type Problems []Problem

// Add 加入錯誤 (已存在則忽略)
func (ps Problems) Add(p Problem) Problems {
	for _, existing := range ps {
		if existing == p {
			return ps
		}
	}
	return append(ps, p)
}

// Err 沒有錯誤時回傳 nil，否則回傳集合本身
func (ps Problems) Err() error {
	if len(ps) == 0 {
		return nil
	}
	return ps
}

func (ps Problems) Error() string {
	msgs := make([]string, 0, len(ps))
	for _, p := range ps {
		msgs = append(msgs, p.Error())
	}
	return strings.Join(msgs, "; ")
}

// ProblemsOf 把任意錯誤整理成錯誤集合
// Problems 原樣回傳；單一 Problem 包成一筆；其他錯誤回傳 nil
func ProblemsOf(err error) Problems {
	var ps Problems
	if errors.As(err, &ps) {
		return ps
	}
	if p, ok := AsProblem(err); ok {
		return Problems{p}
	}
	return nil
}
