package httpagent

import "github.com/B3Pay/ic-reactor-sub004/pkg/principal"

// Request status values reported by the gateway.
const (
	StatusReceived   = "received"
	StatusProcessing = "processing"
	StatusReplied    = "replied"
	StatusRejected   = "rejected"
	StatusDone       = "done"
	StatusUnknown    = "unknown"
)

type queryBody struct {
	MethodName          string               `json:"method_name"`
	Arg                 []byte               `json:"arg"`
	Sender              principal.Principal  `json:"sender"`
	EffectiveCanisterID *principal.Principal `json:"effective_canister_id,omitempty"`
}

type callBody struct {
	MethodName          string               `json:"method_name"`
	Arg                 []byte               `json:"arg"`
	Sender              principal.Principal  `json:"sender"`
	EffectiveCanisterID *principal.Principal `json:"effective_canister_id,omitempty"`
	Nonce               []byte               `json:"nonce"`
}

type reply struct {
	Arg []byte `json:"arg"`
}

type statusBody struct {
	Status        string `json:"status"`
	Reply         *reply `json:"reply,omitempty"`
	RejectCode    int    `json:"reject_code,omitempty"`
	RejectMessage string `json:"reject_message,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
}

type submitted struct {
	RequestID string `json:"request_id"`
}

type replicaStatus struct {
	RootKey []byte `json:"root_key"`
}
