package seedpool_test

import (
	"errors"
	"testing"
	"time"

	"github.com/omniscale/tileseed/internal/seedpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(time.Duration) {}

func TestExpBackoffSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := seedpool.ExpBackoff(func() error {
		calls++
		return nil
	}, seedpool.BackoffConfig{Sleep: noSleep})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExpBackoffRetriesRecoverableUntilSuccess(t *testing.T) {
	calls := 0
	err := seedpool.ExpBackoff(func() error {
		calls++
		if calls < 3 {
			return &seedpool.TileSourceError{Op: "fetch", Err: errors.New("timeout")}
		}
		return nil
	}, seedpool.BackoffConfig{Sleep: noSleep})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExpBackoffStopsAtMaxRepeatAndPropagatesLastError(t *testing.T) {
	calls := 0
	sentinel := errors.New("still failing")
	err := seedpool.ExpBackoff(func() error {
		calls++
		return &seedpool.TileSourceError{Op: "fetch", Err: sentinel}
	}, seedpool.BackoffConfig{MaxRepeat: 4, Sleep: noSleep})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "f should be invoked at most max_repeat times")
	assert.ErrorIs(t, err, sentinel)
}

func TestExpBackoffDoesNotRetryFatalErrors(t *testing.T) {
	calls := 0
	fatal := errors.New("bad config")
	err := seedpool.ExpBackoff(func() error {
		calls++
		return fatal
	}, seedpool.BackoffConfig{MaxRepeat: 10, Sleep: noSleep})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls, "a non-recoverable error must not be retried")
}

func TestExpBackoffSleepsDoubleEachAttemptAndNeverAfterTheLast(t *testing.T) {
	var delays []time.Duration
	calls := 0
	err := seedpool.ExpBackoff(func() error {
		calls++
		return &seedpool.TileSourceError{Op: "fetch", Err: errors.New("x")}
	}, seedpool.BackoffConfig{
		MaxRepeat: 4,
		Start:     1 * time.Millisecond,
		Sleep:     func(d time.Duration) { delays = append(delays, d) },
	})

	require.Error(t, err)
	require.Len(t, delays, 3, "3 sleeps between 4 attempts, none after the last")
	assert.Equal(t, 1*time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
	assert.Equal(t, 4*time.Millisecond, delays[2])

	var total time.Duration
	for _, d := range delays {
		total += d
	}
	bound := time.Millisecond * time.Duration(1<<4-1)
	assert.LessOrEqual(t, total, bound)
}

func TestDefaultRecoverableAcceptsTileSourceError(t *testing.T) {
	err := &seedpool.TileSourceError{Op: "fetch", Err: errors.New("timeout")}
	assert.True(t, seedpool.DefaultRecoverable(err))
}

type temporaryError struct{ temp bool }

func (e temporaryError) Error() string   { return "temporary-ish" }
func (e temporaryError) Temporary() bool { return e.temp }

func TestDefaultRecoverableHonorsTemporaryContract(t *testing.T) {
	assert.True(t, seedpool.DefaultRecoverable(temporaryError{temp: true}))
	assert.False(t, seedpool.DefaultRecoverable(temporaryError{temp: false}))
}

func TestDefaultRecoverableRejectsPlainErrors(t *testing.T) {
	assert.False(t, seedpool.DefaultRecoverable(errors.New("whatever")))
}
