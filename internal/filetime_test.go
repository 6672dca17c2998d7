package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeFILETIMEZeroIsAbsent(t *testing.T) {
	ts, ok := DecodeFILETIME(0)
	require.False(t, ok)
	require.True(t, ts.IsZero())
}

func TestDecodeFILETIMEKnownValue(t *testing.T) {
	// 2020-01-01T00:00:00Z in 100ns ticks since 1601-01-01 UTC.
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := filetimeUnixEpochTicks + uint64(want.Unix())*10000000
	got, ok := DecodeFILETIME(ticks)
	require.True(t, ok)
	require.True(t, want.Equal(got), "got %s want %s", got, want)
}
