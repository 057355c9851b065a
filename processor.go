// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// decodeStreamsConcurrently decodes a page's independent content streams
// concurrently, bounded by cfg.MaxObjects, and returns their decoded
// payloads in the original order. This is the one parallel point the core
// contract permits: the document loader and page walker above it remain
// single-threaded and synchronous.
func decodeStreamsConcurrently(cfg *Config, streams []Value) ([][]byte, error) {
	if len(streams) == 0 {
		return nil, nil
	}
	if len(streams) == 1 {
		b, err := streams[0].Bytes()
		if err != nil {
			return nil, err
		}
		return [][]byte{b}, nil
	}

	limit := int64(cfg.MaxObjects)
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)
	g, ctx := errgroup.WithContext(context.Background())
	results := make([][]byte, len(streams))

	for i, s := range streams {
		i, s := i, s
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
