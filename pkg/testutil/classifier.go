// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// MockClassifier answers from a fixed text -> label map. Texts listed in
// Failures return the matching error instead. Safe for concurrent use.
type MockClassifier struct {
	Labels   map[string]string
	Failures map[string]error
	Default  string
	Delay    time.Duration

	calls    int64
	inFlight int64
	maxSeen  int64
	mu       sync.Mutex
}

// Classify implements classifieriface.Classifier
func (m *MockClassifier) Classify(ctx context.Context, text string) (string, error) {
	atomic.AddInt64(&m.calls, 1)
	current := atomic.AddInt64(&m.inFlight, 1)
	defer atomic.AddInt64(&m.inFlight, -1)

	m.mu.Lock()
	if current > m.maxSeen {
		m.maxSeen = current
	}
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err, ok := m.Failures[text]; ok {
		return "", err
	}
	if label, ok := m.Labels[text]; ok {
		return label, nil
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return "", errors.Errorf("no label configured for %q", text)
}

// GetID implements classifieriface.Classifier
func (m *MockClassifier) GetID() string {
	return "mock"
}

// Calls returns how many times Classify was called
func (m *MockClassifier) Calls() int64 {
	return atomic.LoadInt64(&m.calls)
}

// MaxConcurrent returns the highest number of overlapping Classify calls seen
func (m *MockClassifier) MaxConcurrent() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxSeen
}
