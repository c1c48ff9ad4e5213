package tools

import (
	"encoding/json"
	"fmt"
)

// ToolError represents a structured fault raised during validation or
// execution of a tool. It is converted into an isError result envelope
// by the dispatcher, never surfaced as an uncaught failure.
type ToolError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *ToolError) Error() string {
	return e.Message
}

// ErrorCode categorizes tool faults.
type ErrorCode string

const (
	ErrCodeInvalidParams ErrorCode = "INVALID_PARAMS"
	ErrCodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// NewToolError creates a tool error with optional data.
func NewToolError(code ErrorCode, message string, data map[string]any) *ToolError {
	return &ToolError{Code: code, Message: message, Data: data}
}

// ToJSONRPCError converts the fault to a JSON-RPC error tuple for
// transports that report validation faults at the protocol layer.
func (e *ToolError) ToJSONRPCError() (int, string, json.RawMessage) {
	var code int
	switch e.Code {
	case ErrCodeInvalidParams, ErrCodeLimitExceeded:
		code = -32602 // InvalidParams
	default:
		code = -32603 // InternalError
	}

	var data json.RawMessage
	if e.Data != nil {
		dataBytes, _ := json.Marshal(e.Data)
		data = dataBytes
	}

	return code, e.Message, data
}

func invalidParams(tool string, err error) *ToolError {
	return NewToolError(ErrCodeInvalidParams, fmt.Sprintf("Invalid parameters for %s: %v", tool, err), nil)
}
