package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Conflict("already owned")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("purchase: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, CodeConflict, CodeOf(wrapped))
}

func TestInfrastructureHidesCause(t *testing.T) {
	err := Infrastructure(sql.ErrConnDone)

	assert.Equal(t, []string{"internal error"}, err.Messages)
	assert.NotContains(t, err.Error(), sql.ErrConnDone.Error())
	assert.True(t, errors.Is(err, sql.ErrConnDone))
}

func TestWrapAndCodeOf(t *testing.T) {
	assert.Nil(t, Wrap(nil))
	assert.Equal(t, Code(""), CodeOf(nil))

	v := Validation("empty cart")
	assert.Same(t, v, Wrap(v))

	plain := errors.New("boom")
	assert.Equal(t, CodeInfrastructure, CodeOf(plain))
	assert.Equal(t, CodeInfrastructure, Wrap(plain).Code)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found", (&Error{Code: CodeNotFound}).Error())
	assert.Equal(t, "validation: a; b", Validation("a", "b").Error())
}
