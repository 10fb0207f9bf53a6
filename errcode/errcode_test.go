package errcode

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	assert.Equal(t, OK, Of(nil))
	assert.Equal(t, OutOfRange, Of(OutOfRange))
	assert.Equal(t, InvalidParams, Of(Wrap(InvalidParams, "loglevel", "not a number", nil)))
	assert.Equal(t, Error, Of(io.EOF))
}

func TestWrap(t *testing.T) {
	err := Wrap(OutOfRange, "loglevel", "12", io.ErrShortWrite)
	assert.Equal(t, "loglevel: out_of_range: 12", err.Error())
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.ErrorIs(t, err, OutOfRange)
	assert.False(t, errors.Is(err, Unsupported))

	assert.Equal(t, "unsupported", Wrap(Unsupported, "", "", nil).Error())
}
