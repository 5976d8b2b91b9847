package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsWrapSentinels(t *testing.T) {
	v := Validation("unknown notification type %q", "ping")
	assert.ErrorIs(t, v, ErrValidation)
	assert.Equal(t, `validation error: unknown notification type "ping"`, v.Error())

	nf := fmt.Errorf("dispatch: %w", NotFound("user", 42))
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrValidation)
	assert.Equal(t, "dispatch: not found: user 42", nf.Error())

	assert.ErrorIs(t, Forbidden("not a member of team %d", 3), ErrForbidden)
}
