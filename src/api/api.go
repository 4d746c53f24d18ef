package api

import (
	"encoding/json"
	"fmt"
)

// Control-plane error codes, following JSON-RPC conventions.
const (
	CodeUnknownMethod = -32601
	CodeInvalidParams = -32602
	CodeInternal      = -32603
)

// Request is the JSON body of a control-plane call. Params are forwarded
// verbatim; the harness never interprets them.
type Request struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

// Response is the JSON body returned by the daemon. Exactly one of Result
// and Error is set.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is a structured control-plane error returned by the daemon.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}
