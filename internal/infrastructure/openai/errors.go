package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Category groups failures by how a caller should react to them.
type Category string

const (
	CategoryTransport  Category = "transport_error"
	CategoryClient     Category = "client_error"
	CategoryAuth       Category = "auth_error"
	CategoryForbidden  Category = "forbidden_error"
	CategoryNotFound   Category = "not_found_error"
	CategoryRateLimit  Category = "rate_limit_error"
	CategoryServer     Category = "server_error"
	CategoryUnexpected Category = "unexpected_error"
	CategoryProtocol   Category = "protocol_error"
	CategoryTimeout    Category = "timeout_error"
	CategoryRunFailed  Category = "run_failed"
)

// Reasons refine a category where the status code carries extra meaning.
const (
	ReasonBadRequest = "bad_request"
	ReasonTransient  = "transient"
	ReasonOverloaded = "overloaded"
)

var statusTemplates = map[int]string{
	http.StatusBadRequest:          "Bad Request: The server could not understand the request due to invalid syntax.",
	http.StatusUnauthorized:        "Unauthorized: The API key is invalid or missing.",
	http.StatusForbidden:           "Forbidden: You do not have permission to access this resource.",
	http.StatusNotFound:            "Not Found: The requested resource could not be found.",
	http.StatusTooManyRequests:     "Too Many Requests: You have exceeded the rate limit or your current quota.",
	http.StatusInternalServerError: "Internal Server Error: The server encountered an error and could not complete your request.",
	http.StatusBadGateway:          "Bad Gateway: The server received an invalid response from the upstream server.",
	http.StatusServiceUnavailable:  "Service Unavailable: The engine is currently overloaded, retry after a brief wait.",
	http.StatusGatewayTimeout:      "Gateway Timeout: The server did not receive a timely response from the upstream server.",
}

// Error is the single failure type returned by every remote operation.
type Error struct {
	Category   Category
	Reason     string
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%s (HTTP %d): %s", e.Category, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// APIError decodes the upstream error envelope carried in Body, if any.
func (e *Error) APIError() *openai.APIError {
	if e.Body == "" {
		return nil
	}
	var resp openai.ErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &resp); err != nil {
		return nil
	}
	return resp.Error
}

// Classify maps a non-2xx status and its body to an Error. It performs no I/O;
// readErr reports a failure to read the body and replaces the details line.
func Classify(status int, body []byte, readErr error) *Error {
	e := &Error{StatusCode: status, Body: string(body)}

	switch status {
	case http.StatusBadRequest:
		e.Category, e.Reason = CategoryClient, ReasonBadRequest
	case http.StatusUnauthorized:
		e.Category = CategoryAuth
	case http.StatusForbidden:
		e.Category = CategoryForbidden
	case http.StatusNotFound:
		e.Category = CategoryNotFound
	case http.StatusTooManyRequests:
		e.Category = CategoryRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		e.Category, e.Reason = CategoryServer, ReasonTransient
	case http.StatusServiceUnavailable:
		e.Category, e.Reason = CategoryServer, ReasonOverloaded
	default:
		e.Category = CategoryUnexpected
	}

	msg, ok := statusTemplates[status]
	if !ok {
		msg = fmt.Sprintf("Unexpected Error: Received HTTP response code %d", status)
	}
	if readErr != nil {
		msg += "\nFailed to read error details: " + readErr.Error()
	} else {
		msg += "\nDetails: " + string(body)
	}
	e.Message = msg
	return e
}

func NewTransportError(op string, err error) *Error {
	return &Error{Category: CategoryTransport, Message: op + " failed", Err: err}
}

func NewProtocolError(op, detail string, err error) *Error {
	return &Error{Category: CategoryProtocol, Message: fmt.Sprintf("%s: %s", op, detail), Err: err}
}

func NewTimeoutError(runID string, timeout time.Duration) *Error {
	return &Error{Category: CategoryTimeout, Message: fmt.Sprintf("run %s did not finish within %s", runID, timeout)}
}

func newRunFailedError(run *openai.Run) *Error {
	msg := fmt.Sprintf("run %s ended with status %s", run.ID, run.Status)
	if run.LastError != nil {
		msg += fmt.Sprintf(": %s: %s", run.LastError.Code, run.LastError.Message)
	}
	return &Error{Category: CategoryRunFailed, Message: msg}
}

func invalidRequest(op, detail string) *Error {
	return &Error{Category: CategoryClient, Reason: ReasonBadRequest, Message: fmt.Sprintf("%s: %s", op, detail)}
}

// CategoryOf returns the category of err, or "" when err is not an *Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// IsCategory reports whether err is an *Error of the given category.
func IsCategory(err error, c Category) bool {
	return err != nil && CategoryOf(err) == c
}

// IsRetryable reports whether a later identical request may succeed.
func IsRetryable(err error) bool {
	switch CategoryOf(err) {
	case CategoryTransport, CategoryRateLimit, CategoryServer:
		return true
	}
	return false
}
