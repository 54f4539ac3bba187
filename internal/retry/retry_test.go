// go-civ
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-civ.
//
// go-civ is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-civ is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-civ; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errBusy     = errors.New("bus busy")
	errRejected = errors.New("rejected")
)

// flakyOp fails with errBusy failures times, then succeeds
func flakyOp(failures int, calls *int) Operation[string] {
	return func() (string, bool, error) {
		*calls++
		if *calls <= failures {
			return "", true, errBusy
		}
		return "ok", false, nil
	}
}

func TestDo_RetryPolicy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr   error
		name      string
		failures  int
		retries   int
		wantCalls int
	}{
		{name: "succeeds first time", failures: 0, retries: 3, wantCalls: 1},
		{name: "retries equal failures", failures: 3, retries: 3, wantCalls: 4},
		{name: "retries above failures", failures: 2, retries: 5, wantCalls: 3},
		{name: "retries below failures", failures: 4, retries: 2, wantCalls: 3, wantErr: errBusy},
		{name: "no retries", failures: 1, retries: 0, wantCalls: 1, wantErr: errBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			got, err := Do(context.Background(), Config{MaxRetries: tt.retries}, flakyOp(tt.failures, &calls))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
		})
	}
}

func TestDo_PermanentErrorShortCircuits(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 10}, func() (int, bool, error) {
		calls++
		return 0, false, errRejected
	})

	require.ErrorIs(t, err, errRejected)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	t.Parallel()

	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 2}, func() (int, bool, error) {
		e := errs[calls]
		calls++
		return 0, true, e
	})

	require.Error(t, err)
	assert.Equal(t, "third", err.Error())
}

func TestDo_Callbacks(t *testing.T) {
	t.Parallel()

	var attempts []int
	var failedWith error
	calls := 0

	_, err := Do(context.Background(), Config{
		MaxRetries: 2,
		OnRetry: func(attempt int, _ error) error {
			attempts = append(attempts, attempt)
			return nil
		},
		OnRetryFailed: func(lastErr error) error {
			failedWith = lastErr
			return nil
		},
	}, flakyOp(10, &calls))

	require.ErrorIs(t, err, errBusy)
	assert.Equal(t, []int{1, 2}, attempts)
	require.ErrorIs(t, failedWith, errBusy)
}

func TestDo_DelayAndCancellation(t *testing.T) {
	t.Parallel()

	t.Run("delay between attempts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		start := time.Now()
		_, err := Do(context.Background(), Config{MaxRetries: 2, RetryDelay: 20 * time.Millisecond}, flakyOp(2, &calls))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})

	t.Run("context canceled during delay", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := Do(ctx, Config{MaxRetries: 100, RetryDelay: time.Second}, flakyOp(100, &calls))
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestUntilTimeout(t *testing.T) {
	t.Parallel()

	t.Run("eventually succeeds", func(t *testing.T) {
		t.Parallel()
		calls := 0
		got, err := UntilTimeout(context.Background(), time.Second, time.Millisecond, flakyOp(3, &calls))
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 4, calls)
	})

	t.Run("gives up with last error", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := UntilTimeout(context.Background(), 30*time.Millisecond, 5*time.Millisecond, flakyOp(1000, &calls))
		require.ErrorIs(t, err, errBusy)
		assert.Greater(t, calls, 1)
	})
}
