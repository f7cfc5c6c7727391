// Package apierror 所有對外介面 (REST / GraphQL / gRPC) 共用的錯誤格式
//
// 每個錯誤都序列化成 {"error": 名稱, "errorNumber": 編號, ...附帶資料}，
// 多個錯誤包在 {"errors": [...]} 之中
package apierror

import (
	"errors"
	"net/http"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

// Body 單一錯誤的 JSON 物件
type Body map[string]any

// Response 錯誤回應
type Response struct {
	Errors []Body `json:"errors"`
}

// BodyOf 把 Problem 轉成對外的 JSON 物件
func BodyOf(p domain.Problem) Body {
	body := Body{
		"error":       p.Code().Name(),
		"errorNumber": p.Code().Number(),
	}
	switch e := p.(type) {
	case domain.General:
		body["message"] = e.Message
	case domain.Unparseable:
		body["lineNumber"] = e.Line
		body["columnNumber"] = e.Column
		body["charOffset"] = e.CharOffset
		body["byteOffset"] = e.ByteOffset
	case domain.UnknownProperty:
		body["property"] = e.Property
		if e.PropertyPath == "" {
			body["propertyPath"] = nil
		} else {
			body["propertyPath"] = e.PropertyPath
		}
	case domain.TypeError:
		body["field"] = e.Field
		body["value"] = e.Value
		body["expectedType"] = e.ExpectedType
	case domain.AccountAlreadyExists:
		body["charId"] = e.OwnerID.Value()
	case domain.NoSuchAccountID:
		body["id"] = e.ID.Value()
	case domain.UnknownCharacterID:
		body["charId"] = e.OwnerID.Value()
	}
	return body
}

// NewResponse 由錯誤集合建立回應
func NewResponse(problems domain.Problems) Response {
	bodies := make([]Body, 0, len(problems))
	for _, p := range problems {
		bodies = append(bodies, BodyOf(p))
	}
	return Response{Errors: bodies}
}

// Status 單一錯誤種類對應的 HTTP 狀態碼
func Status(p domain.Problem) int {
	switch p.Code() {
	case domain.CodeUnparseable, domain.CodeUnknownProperty, domain.CodeTypeError:
		return http.StatusBadRequest
	case domain.CodeNoSuchAccountID, domain.CodeUnknownCharacterID:
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

// Translate 把任意錯誤轉成 HTTP 狀態碼與回應
//
// 錯誤集合取其中最小的狀態碼 (格式錯誤優先於語意錯誤)；
// 樂觀鎖重試用盡回傳 409；其他非 Problem 錯誤回傳 500 且不洩漏內部訊息
func Translate(err error) (int, Response) {
	if problems := domain.ProblemsOf(err); len(problems) > 0 {
		status := Status(problems[0])
		for _, p := range problems[1:] {
			status = min(status, Status(p))
		}
		return status, NewResponse(problems)
	}
	if errors.Is(err, usecase.ErrStaleAccount) {
		return http.StatusConflict, NewResponse(domain.Problems{Conflict()})
	}
	return http.StatusInternalServerError, NewResponse(domain.Problems{Internal()})
}

// Conflict 並發修改衝突時回傳給客戶端的錯誤
func Conflict() domain.Problem {
	return domain.General{Message: "account was modified concurrently, please retry"}
}

// Internal 伺服器內部錯誤時回傳給客戶端的錯誤
func Internal() domain.Problem {
	return domain.General{Message: "internal server error"}
}
