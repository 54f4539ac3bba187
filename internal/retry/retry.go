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

// Package retry provides the bounded retry loops used by the transaction engine
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetriesExhausted is returned when every attempt asked to be retried but
// none reported an error to surface.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Operation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the failure is recoverable and the operation should run again
// - error: the failure of this attempt; surfaced as is when shouldRetry is false
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior
type Config struct {
	OnRetry       func(attempt int, err error) error
	OnRetryFailed func(lastErr error) error
	Description   string
	MaxRetries    int
	RetryDelay    time.Duration
}

// Do runs operation once plus up to MaxRetries additional times.
// A result with shouldRetry false ends the loop immediately, successful or
// not. When the retries run out, the last attempt's error is returned rather
// than a generic failure.
func Do[T any](ctx context.Context, config Config, operation Operation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if !shouldRetry {
			if err != nil {
				return zero, err
			}
			return result, nil
		}
		lastErr = err

		if attempt >= config.MaxRetries {
			break
		}

		if err := executeRetryCallback(config, attempt+1, lastErr); err != nil {
			return zero, err
		}

		if err := sleep(ctx, config.RetryDelay); err != nil {
			return zero, err
		}
	}

	return handleRetriesExhausted[T](config, lastErr)
}

// executeRetryCallback executes the retry callback if provided
func executeRetryCallback(config Config, attempt int, err error) error {
	if config.OnRetry != nil {
		return config.OnRetry(attempt, err)
	}
	return nil
}

// handleRetriesExhausted handles the case when all retries are exhausted
func handleRetriesExhausted[T any](config Config, lastErr error) (T, error) {
	var zero T

	if config.OnRetryFailed != nil {
		if failErr := config.OnRetryFailed(lastErr); failErr != nil {
			return zero, failErr
		}
	}

	if lastErr == nil {
		return zero, ErrRetriesExhausted
	}
	return zero, lastErr
}

// UntilTimeout runs operation every interval until it stops asking to be
// retried or timeout elapses. Used for waiting on a rig that is still
// waking up.
func UntilTimeout[T any](ctx context.Context, timeout, interval time.Duration, operation Operation[T]) (T, error) {
	var zero T
	var lastErr error
	deadline := time.Now().Add(timeout)

	for {
		result, shouldRetry, err := operation()
		if !shouldRetry {
			if err != nil {
				return zero, err
			}
			return result, nil
		}
		lastErr = err

		if !time.Now().Add(interval).Before(deadline) {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return zero, err
		}
	}

	if lastErr == nil {
		return zero, context.DeadlineExceeded
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
