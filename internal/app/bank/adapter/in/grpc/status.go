package grpc

import (
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/apierror"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
)

// toStatus 把錯誤轉成 gRPC status，每個錯誤物件以 structpb.Struct 放在 details 中
func toStatus(err error) error {
	httpStatus, resp := apierror.Translate(err)
	code := codeOf(httpStatus, domain.ProblemsOf(err))

	msg := err.Error()
	if code == codes.Internal || code == codes.Aborted {
		msg = resp.Errors[0]["message"].(string)
	}
	st := status.New(code, msg)
	for _, body := range resp.Errors {
		detail, derr := structpb.NewStruct(body)
		if derr != nil {
			continue
		}
		if withDetail, derr := st.WithDetails(detail); derr == nil {
			st = withDetail
		}
	}
	return st.Err()
}

func codeOf(httpStatus int, problems domain.Problems) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.Aborted
	case http.StatusUnprocessableEntity:
		for _, p := range problems {
			if p.Code() == domain.CodeAccountAlreadyExists {
				return codes.AlreadyExists
			}
		}
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// ProblemBodies 從 gRPC 錯誤取出錯誤物件 (客戶端使用)
func ProblemBodies(err error) []map[string]any {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	var bodies []map[string]any
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			bodies = append(bodies, s.AsMap())
		}
	}
	return bodies
}
