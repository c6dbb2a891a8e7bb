package icerrors

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrorResponse is the JSON shape of an error reported by a gateway or
// printed by the command line in structured output modes.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// ToErrorResponse converts any error into an ErrorResponse, keeping the
// code and details of canister errors.
func ToErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return &ErrorResponse{}
	}

	var resp *ErrorResponse
	if errors.As(err, &resp) {
		return resp
	}
	var ce *CanisterError
	if errors.As(err, &ce) {
		return &ErrorResponse{Code: ce.Code, Message: ce.Error(), Details: ce.Details}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		details := make(map[string]string, len(ve.Issues))
		for _, issue := range ve.Issues {
			key := "arg"
			if len(issue.Path) > 0 {
				key = issue.Path[len(issue.Path)-1]
			}
			details[key] = issue.Message
		}
		return &ErrorResponse{Code: "VALIDATION_ERROR", Message: ve.Error(), Details: details}
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return &ErrorResponse{Code: "CALL_ERROR", Message: callErr.Error()}
	}
	return &ErrorResponse{Code: UnknownErrorCode, Message: err.Error()}
}

// DecodeErrorResponse parses a gateway error body. Bodies that are not JSON
// error objects become an ErrorResponse carrying the raw text.
func DecodeErrorResponse(body []byte) *ErrorResponse {
	resp := &ErrorResponse{}
	if err := json.Unmarshal(body, resp); err != nil || resp.Message == "" {
		return &ErrorResponse{Code: UnknownErrorCode, Message: string(body)}
	}
	if resp.Code == "" {
		resp.Code = UnknownErrorCode
	}
	return resp
}
