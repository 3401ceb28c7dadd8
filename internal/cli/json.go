package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// JSONEnvelope wraps --json output in a consistent structure for scripts.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError is a machine-readable error.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Machine-readable error codes.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeSSHFailed      = "SSH_FAILED"
	ErrCodeRuntimeFailed  = "RUNTIME_FAILED"
	ErrCodeBadStats       = "BAD_STATS"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError writes err as a failed response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts an error to a JSONError, mapping structured error
// codes to machine-readable ones.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var lcErr *errors.Error
	if stderrors.As(err, &lcErr) {
		return &JSONError{
			Code:       mapErrorCode(lcErr.Code, lcErr.Message),
			Message:    lcErr.Message,
			Suggestion: lcErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		if strings.Contains(strings.ToLower(message), "not found") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrSSH:
		return ErrCodeSSHFailed
	case errors.ErrExec, errors.ErrFeed:
		return ErrCodeRuntimeFailed
	case errors.ErrParse:
		return ErrCodeBadStats
	}
	return ErrCodeUnknown
}
