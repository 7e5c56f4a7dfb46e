package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prior-it/addressd/core"
	"github.com/stretchr/testify/assert"
)

func TestInputError(t *testing.T) {
	t.Run("ok: matches ErrInvalidInput and its cause", func(t *testing.T) {
		cause := errors.New("strconv.Atoi: parsing \"abc\": invalid syntax")
		err := fmt.Errorf("decode: %w", core.NewInputError("address id must be a positive integer", cause))

		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, core.ErrNotFound)

		var inputErr *core.InputError
		assert.ErrorAs(t, err, &inputErr)
		assert.Equal(t, "address id must be a positive integer", inputErr.Message)
	})

	t.Run("ok: cause is optional", func(t *testing.T) {
		err := core.NewInputError("cursor cannot be 0", nil)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.Equal(t, "cursor cannot be 0", err.Error())
	})

	t.Run("ok: id parsing keeps the parser details out of the message", func(t *testing.T) {
		_, err := core.ParseAddressID("abc")
		var inputErr *core.InputError
		assert.ErrorAs(t, err, &inputErr)
		assert.NotContains(t, inputErr.Message, "strconv")
	})
}
