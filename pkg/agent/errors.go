package agent

import "fmt"

// Reject codes returned by replicas.
const (
	RejectSysFatal       = 1
	RejectSysTransient   = 2
	RejectDestInvalid    = 3
	RejectCanisterReject = 4
	RejectCanisterError  = 5
)

// RejectError is a call the replica or canister refused.
type RejectError struct {
	Code      int    `json:"reject_code"`
	Message   string `json:"reject_message"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (e *RejectError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("call rejected (code %d, %s): %s", e.Code, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("call rejected (code %d): %s", e.Code, e.Message)
}
