/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package task holds the small async primitives the gallery session uses:
// single-resolution futures, an all-settled join and a trailing debouncer.
package task

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Future is resolved exactly once with a value or an error.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns a pending future.
func NewFuture[T any]() *Future[T] { return &Future[T]{done: make(chan struct{})} }

// Resolved returns a future that is already settled.
func Resolved[T any](v T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v, err)
	return f
}

// Resolve settles f. Only the first call has an effect; it reports whether it won.
func (f *Future[T]) Resolve(v T, err error) bool {
	won := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		won = true
	})
	return won
}

// Done is closed once f is settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Settled reports whether f has been resolved.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until f settles or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// All waits until every future has settled. Failed futures count as settled;
// the only error returned is the context's.
func All[T any](ctx context.Context, fs ...*Future[T]) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fs {
		if f == nil {
			continue
		}
		g.Go(func() error {
			select {
			case <-f.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}
