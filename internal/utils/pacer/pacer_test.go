package pacer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaceFastWorkBlocksForRemainder(t *testing.T) {
	window := 200 * time.Millisecond

	begin := time.Now()
	err := Pace(window, func() error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	dur := time.Since(begin)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, dur, window)
	assert.Less(t, dur, window+100*time.Millisecond)
}

func TestPaceSlowWorkReturnsImmediately(t *testing.T) {
	window := 50 * time.Millisecond
	workDur := 150 * time.Millisecond

	begin := time.Now()
	err := Pace(window, func() error {
		time.Sleep(workDur)
		return nil
	})
	dur := time.Since(begin)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, dur, workDur)
	assert.Less(t, dur, workDur+50*time.Millisecond)
}

func TestPacePropagatesWorkError(t *testing.T) {
	wantErr := errors.New("boom")
	err := Pace(10*time.Millisecond, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}
