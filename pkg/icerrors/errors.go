// Package icerrors holds the error taxonomy shared by the reactor, the agent
// manager and the code generator.
package icerrors

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// UnknownErrorCode is used when a canister error carries no recognisable code.
const UnknownErrorCode = "UNKNOWN_ERROR"

// CallError is returned when invoking a canister method fails for a reason
// other than the canister answering with an Err result: transport failures,
// rejections, encoding problems, unknown methods.
type CallError struct {
	Method string
	cause  error
}

func NewCallError(method string, cause error) *CallError {
	return &CallError{Method: method, cause: errors.WithStack(cause)}
}

func (e *CallError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("Failed to call method %q", e.Method)
	}
	return fmt.Sprintf("Failed to call method %q: %s", e.Method, errors.Cause(e.cause).Error())
}

func (e *CallError) Unwrap() error { return e.cause }

// labeled is satisfied by decoded variant values.
type labeled interface {
	VariantLabel() string
}

// CanisterError is returned when a canister answers with an Err result.
type CanisterError struct {
	// Err is the raw error payload returned by the canister.
	Err     any
	Code    string
	Details map[string]string

	message  string
	apiShape bool
}

// NewCanisterError extracts a code from err. An object carrying a string
// "code" is treated as a structured API error; otherwise the "_type" tag or
// the single variant key is used.
func NewCanisterError(err any) *CanisterError {
	ce := &CanisterError{Err: err}

	switch v := err.(type) {
	case map[string]any:
		if code, ok := v["code"].(string); ok {
			ce.Code = code
			ce.apiShape = true
			if msg, ok := v["message"].(string); ok {
				ce.message = msg
			}
			ce.Details = detailsOf(v["details"])
		} else if tag, ok := v["_type"].(string); ok {
			ce.Code = tag
		} else if len(v) == 1 {
			for k := range v {
				ce.Code = k
			}
		}
	case labeled:
		ce.Code = v.VariantLabel()
	}

	if ce.Code == "" {
		ce.Code = UnknownErrorCode
	}
	if ce.message == "" {
		ce.message = renderPayload(err)
	}
	return ce
}

func detailsOf(v any) map[string]string {
	switch d := v.(type) {
	case map[string]string:
		return d
	case map[string]any:
		out := make(map[string]string, len(d))
		for k, val := range d {
			out[k] = fmt.Sprint(val)
		}
		return out
	}
	return nil
}

func renderPayload(err any) string {
	switch v := err.(type) {
	case string:
		return v
	case nil:
		return "null"
	}
	b, marshalErr := json.MarshalIndent(err, "", "  ")
	if marshalErr != nil {
		return fmt.Sprint(err)
	}
	return string(b)
}

func (e *CanisterError) Error() string {
	if e.apiShape {
		return e.message
	}
	return "Canister Error: " + e.message
}

// AsCanisterError wraps any error into a CanisterError, keeping existing ones.
func AsCanisterError(err error) *CanisterError {
	var ce *CanisterError
	if errors.As(err, &ce) {
		return ce
	}
	return &CanisterError{
		Err:      err,
		Code:     UnknownErrorCode,
		message:  err.Error(),
		apiShape: true,
	}
}

// ValidationIssue is a single failed check against a call argument.
type ValidationIssue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// ValidationError is returned when arguments fail validation before the call is made.
type ValidationError struct {
	Method string
	Issues []ValidationIssue
}

func NewValidationError(method string, issues ...ValidationIssue) *ValidationError {
	return &ValidationError{Method: method, Issues: issues}
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, issue.Message)
	}
	return fmt.Sprintf("Validation failed for %q: %s", e.Method, strings.Join(messages, ", "))
}

// IssuesForPath returns the issues whose path contains the given segment.
func (e *ValidationError) IssuesForPath(segment string) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range e.Issues {
		for _, p := range issue.Path {
			if p == segment {
				out = append(out, issue)
				break
			}
		}
	}
	return out
}

func (e *ValidationError) HasErrorForPath(segment string) bool {
	return len(e.IssuesForPath(segment)) > 0
}

// ConfigError reports an invalid construction parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func NewConfigError(field, reason string) error {
	return errors.WithStack(&ConfigError{Field: field, Reason: reason})
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

func IsCanisterError(err error) bool {
	var ce *CanisterError
	return errors.As(err, &ce)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
