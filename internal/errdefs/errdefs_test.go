package errdefs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("access denied")

	err := Listing("docs", cause)
	assert.True(t, IsListing(err))
	assert.False(t, IsFetch(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "listing error: list bucket docs: access denied", err.Error())

	err = Fetch("open", "docs", "a/1.txt", context.Canceled)
	assert.True(t, IsFetch(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "fetch error: open docs/a/1.txt: context canceled", err.Error())

	err = InvalidState("WriteChunk", "idle")
	assert.True(t, IsInvalidState(err))
	assert.Equal(t, "invalid state: WriteChunk: not allowed while idle", err.Error())

	err = Configuration("region is required")
	assert.True(t, IsConfiguration(err))
	assert.Equal(t, "configuration error: region is required", err.Error())
}

func TestWrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("stream archive: %w", Fetch("read", "docs", "b/2.txt", errors.New("reset by peer")))
	assert.True(t, IsFetch(err))

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "b/2.txt", e.Key)
	assert.Equal(t, "read", e.Op)
}
