// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Retry exponentially retries f, with jitter, until it succeeds, the attempts
// run out or ctx is done. The last error is wrapped with prefix.
func Retry(ctx context.Context, attempts int, sleep time.Duration, prefix string, f func() error) error {
	err := f()
	if err == nil {
		return nil
	}

	if attempts--; attempts <= 0 {
		return errors.Wrap(err, prefix)
	}
	log.Warnf("Retrying func (attempts: %d): %s: %s", attempts, prefix, err)

	if sleep > 0 {
		jitter := time.Duration(rand.Int63n(int64(sleep)))
		sleep = sleep + jitter/2
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(err, prefix)
	case <-time.After(sleep):
	}
	return Retry(ctx, attempts, 2*sleep, prefix, f)
}
