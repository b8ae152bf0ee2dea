// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package agentsvc

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// schemaValidate is the shared validator instance for all wire types.
// Stateless after init and safe for concurrent use.
var schemaValidate *validator.Validate

func init() {
	schemaValidate = validator.New(validator.WithRequiredStructEnabled())
}

// ValidationError reports a payload that failed schema validation.
// Field is the path of the first offending field; validation is
// all-or-nothing, so a partial value is never produced alongside one.
type ValidationError struct {
	// Field is the namespaced path of the offending field, e.g.
	// "ChatMessage.Role".
	Field string

	// Rule is the validation rule that failed, e.g. "required" or "oneof".
	Rule string

	err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s (rule %q)", e.Field, e.Rule)
	}
	return fmt.Sprintf("validation failed: %v", e.err)
}

// Unwrap returns the underlying validator error.
func (e *ValidationError) Unwrap() error {
	return e.err
}

// validateStruct runs the shared validator over v and converts the first
// failure into a *ValidationError naming the offending field path.
func validateStruct(v any) error {
	err := schemaValidate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{
			Field: verrs[0].Namespace(),
			Rule:  verrs[0].Tag(),
			err:   err,
		}
	}
	return &ValidationError{err: err}
}
