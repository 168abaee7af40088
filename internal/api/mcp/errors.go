package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	driver "github.com/arangodb/go-driver"
)

// ErrorKind is the stable, caller-facing classification of a failed tool
// call. Kinds are part of the public contract: clients branch on them, so
// their names never change even when the underlying error text does.
type ErrorKind string

const (
	KindUnknownOperation   ErrorKind = "UnknownOperation"
	KindValidation         ErrorKind = "ValidationError"
	KindUnavailable        ErrorKind = "DatabaseUnavailable"
	KindArangoServer       ErrorKind = "ArangoServerError"
	KindCollectionNotFound ErrorKind = "CollectionNotFound"
	KindGraphNotFound      ErrorKind = "GraphNotFound"
	KindInternal           ErrorKind = "InternalError"
)

// ToolError is a classified tool failure. Handlers may return one directly
// to control the caller-facing kind; any other error is normalized by
// normalizeError.
type ToolError struct {
	Kind    ErrorKind
	Message string
	Details interface{}
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewToolError builds a ToolError with no details.
func NewToolError(kind ErrorKind, message string) *ToolError {
	return &ToolError{Kind: kind, Message: message}
}

// Errorf builds a ToolError with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FieldError describes a single argument contract violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ArangoDB server error numbers this server classifies specially.
const (
	arangoErrCollectionNotFound = 1203 // collection or view not found
	arangoErrGraphNotFound      = 1924 // graph not found
)

// normalizeError maps an arbitrary handler error onto the stable taxonomy.
// ToolErrors pass through untouched; ArangoDB server errors become
// ArangoServerError (or a more specific not-found kind); everything else is
// InternalError.
func normalizeError(err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	var ae driver.ArangoError
	if errors.As(err, &ae) {
		kind := KindArangoServer
		switch ae.ErrorNum {
		case arangoErrCollectionNotFound:
			kind = KindCollectionNotFound
		case arangoErrGraphNotFound:
			kind = KindGraphNotFound
		}
		return &ToolError{
			Kind:    kind,
			Message: ae.ErrorMessage,
			Details: map[string]interface{}{
				"code":      ae.Code,
				"error_num": ae.ErrorNum,
			},
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ToolError{Kind: KindInternal, Message: "operation canceled"}
	}
	return &ToolError{Kind: KindInternal, Message: err.Error()}
}

// errorBody is the minimal stable envelope serialized into the text content
// of a failed tool call.
type errorBody struct {
	Error   string      `json:"error"`
	Type    ErrorKind   `json:"type"`
	Details interface{} `json:"details,omitempty"`
}

// toolFailure renders a ToolError into an MCP tool call result with
// isError set. Marshaling errorBody cannot fail for the types stored in it,
// but a fallback frame is kept so the protocol never stalls.
func toolFailure(te *ToolError) *MCPToolCallResult {
	body := errorBody{Error: te.Message, Type: te.Kind, Details: te.Details}
	text, err := json.Marshal(body)
	if err != nil {
		text = []byte(`{"error":"internal error","type":"InternalError"}`)
	}
	return &MCPToolCallResult{
		Content: []MCPToolCallContent{{Type: "text", Text: string(text)}},
		IsError: true,
	}
}

// toolSuccess renders a handler payload into an MCP tool call result.
func toolSuccess(payload interface{}) (*MCPToolCallResult, error) {
	text, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &MCPToolCallResult{
		Content: []MCPToolCallContent{{Type: "text", Text: string(text)}},
	}, nil
}
