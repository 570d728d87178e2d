package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := newError(KindNotFound, "Game not found")
	wrapped := fmt.Errorf("handling request: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrNameTaken))
	assert.Equal(t, "Game not found", err.Error())

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)

	_, ok = KindOf(errors.New("redis: connection refused"))
	assert.False(t, ok)
}
