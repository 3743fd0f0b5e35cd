package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := Validation("inspection.SetMeasuredValue", "index %d out of range", 4)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrParse))

	wrapped := fmt.Errorf("cli: %w", err)
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestWrap_ExposesCause(t *testing.T) {
	err := Wrap(KindConnection, "stream", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrConnection))
	assert.Equal(t, "stream: connection_error: unexpected EOF", err.Error())

	assert.Nil(t, Wrap(KindConnection, "stream", nil))
}

func TestError_Message(t *testing.T) {
	err := New(KindInvalidStateTransition, "", "cannot complete %s inspection", "COMPLETED")
	assert.Equal(t, "cannot complete COMPLETED inspection", err.Error())
	assert.Equal(t, Kind(""), KindOf(io.EOF))
}
