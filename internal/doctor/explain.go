package doctor

import (
	stderrors "errors"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// explain splits err into a one-line message and a suggestion.
func explain(err error) (string, string) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		msg := e.Message
		if e.Cause != nil {
			cause, _ := explain(e.Cause)
			msg += ": " + cause
		}
		return msg, e.Suggestion
	}
	return strings.Join(strings.Fields(err.Error()), " "), ""
}

// failure turns err into a failed result prefixed with what was attempted.
func failure(what string, err error) CheckResult {
	msg, suggestion := explain(err)
	return CheckResult{
		Status:     StatusFail,
		Message:    what + ": " + msg,
		Suggestion: suggestion,
	}
}
