package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	for _, kind := range Kinds {
		wrapped := fmt.Errorf("graph: node 7: %w", kind)
		assert.Equal(t, kind, KindOf(wrapped), "kind %v", kind)
	}
	assert.Nil(t, KindOf(errors.New("plain")))
	assert.Nil(t, KindOf(nil))
}

func TestKindOf_DoubleWrap(t *testing.T) {
	inner := fmt.Errorf("arena: value 3: %w", ErrUnset)
	outer := fmt.Errorf("forward: node mul: %w", inner)
	assert.ErrorIs(t, outer, ErrUnset)
	assert.Equal(t, ErrUnset, KindOf(outer))
}
