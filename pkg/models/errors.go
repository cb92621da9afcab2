package models

import (
	"fmt"
	"strings"
)

// ValidationError reports one bad field of a graph, instance or partition.
// Value names the offending node, group or count when there is one.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ve ValidationError) Error() string {
	if ve.Value == "" {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s [%s]", ve.Field, ve.Message, ve.Value)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "valid"
	case 1:
		return ve[0].Error()
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d problems: %s", len(ve), strings.Join(msgs, "; "))
}
