package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodedErrors(t *testing.T) {
	t.Run("WithCode", func(t *testing.T) {
		err := WithCode(CodeIllegalTransition, "cannot leave a terminal status")
		assert.Equal(t, CodeIllegalTransition, GetCode(err))
		assert.Equal(t, "cannot leave a terminal status", err.Error())
		assert.True(t, IsCode(err, CodeIllegalTransition))
		assert.False(t, IsCode(err, CodeValidation))
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Wrap(CodeStoreUnavailable, cause, "create alert failed")
		assert.Equal(t, CodeStoreUnavailable, GetCode(err))
		assert.Equal(t, cause, Cause(err))
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("Wrap nil", func(t *testing.T) {
		assert.Nil(t, Wrap(CodeStoreUnavailable, nil, "noop"))
	})

	t.Run("foreign error", func(t *testing.T) {
		err := stderrors.New("plain")
		assert.Equal(t, 0, GetCode(err))
		assert.Equal(t, "plain", GetMessage(err))
	})
}
