package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassifiesDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"validation", NewValidationError("bad input"), KindValidation},
		{"not found", NewNotFoundError("Pass", "abc"), KindNotFound},
		{"conflict", NewConflictError("already pending"), KindConflict},
		{"invalid state", NewInvalidStateError("pending", "active"), KindInvalidState},
		{"forbidden", NewForbiddenError("not yours"), KindForbidden},
		{"unauthorized", NewUnauthorizedError("invalid credentials"), KindUnauthorized},
		{"not eligible", NewNotEligibleError("outside window"), KindNotEligible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, KindOf(tc.err))
		})
	}
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("failed to save pass: %w", NewConflictError("version mismatch"))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, KindOf(wrapped) == KindConflict)
}

func TestKindOfNonDomainErrorIsEmpty(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("connection refused")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
