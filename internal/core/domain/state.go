package domain

import (
	"fmt"
	"strings"
)

// TransitionError reports a state-machine transition attempted from the wrong status.
type TransitionError struct {
	Entity   string
	Current  string
	Required []string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s is %s", e.Entity, e.Current)
	if len(e.Required) > 0 {
		msg += ", must be " + strings.Join(e.Required, " or ")
	}
	return msg
}

func transitionError[S ~string](entity string, current S, required ...S) *TransitionError {
	req := make([]string, len(required))
	for i, r := range required {
		req[i] = string(r)
	}
	return &TransitionError{Entity: entity, Current: string(current), Required: req}
}
