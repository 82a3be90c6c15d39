package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCursorRoundTrip(t *testing.T) {
	in := EventCursor{
		Date: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		ID:   "e42b6ed3-0af3-49f0-9dcd-37aa7ed8c980",
	}

	encoded, err := EncodeEventCursor(in)
	require.NoError(t, err)

	out, err := DecodeEventCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEventCursorRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "!!not-base64", "bm90IGpzb24", "e30"} {
		_, err := DecodeEventCursor(raw)
		assert.Error(t, err, "input %q", raw)
	}
}
