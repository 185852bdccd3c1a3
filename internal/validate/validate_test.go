package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalid(t *testing.T) {
	err := Invalid("chunk_size", 0, "must be positive")
	assert.EqualError(t, err, "invalid chunk_size (0): must be positive")
	assert.ErrorIs(t, err, ErrInvalid)

	wrapped := fmt.Errorf("load: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalid)

	var verr *Error
	assert.True(t, errors.As(wrapped, &verr))
	assert.Equal(t, "chunk_size", verr.Field)
}

func TestOtherErrorsDoNotMatch(t *testing.T) {
	assert.NotErrorIs(t, errors.New("invalid configuration"), ErrInvalid)
}
