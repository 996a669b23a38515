// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package classifier

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/snowplow-devops/stream-sentiment/pkg/classifier/classifieriface"
)

// CircuitBreakerConfig configures the breaker placed in front of a classifier
type CircuitBreakerConfig struct {
	Enabled      bool    `hcl:"enabled,optional" env:"CLASSIFIER_CIRCUIT_BREAKER_ENABLED"`
	MaxRequests  uint32  `hcl:"max_requests,optional" env:"CLASSIFIER_CIRCUIT_BREAKER_MAX_REQUESTS"`
	IntervalSec  int     `hcl:"interval_sec,optional" env:"CLASSIFIER_CIRCUIT_BREAKER_INTERVAL_SEC"`
	TimeoutSec   int     `hcl:"timeout_sec,optional" env:"CLASSIFIER_CIRCUIT_BREAKER_TIMEOUT_SEC"`
	MinRequests  uint32  `hcl:"min_requests,optional" env:"CLASSIFIER_CIRCUIT_BREAKER_MIN_REQUESTS"`
	FailureRatio float64 `hcl:"failure_ratio,optional" env:"CLASSIFIER_CIRCUIT_BREAKER_FAILURE_RATIO"`
}

// DefaultCircuitBreakerConfig returns the breaker defaults, disabled
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Enabled:      false,
		MaxRequests:  3,
		IntervalSec:  60,
		TimeoutSec:   30,
		MinRequests:  10,
		FailureRatio: 0.5,
	}
}

// CircuitBreakerClassifier fails calls fast while the wrapped classifier
// keeps failing. Every rejected call surfaces gobreaker.ErrOpenState or
// gobreaker.ErrTooManyRequests.
type CircuitBreakerClassifier struct {
	classifier classifieriface.Classifier
	cb         *gobreaker.CircuitBreaker

	log *log.Entry
}

// NewCircuitBreakerClassifier wraps the classifier in a circuit breaker
func NewCircuitBreakerClassifier(c classifieriface.Classifier, cfg *CircuitBreakerConfig) *CircuitBreakerClassifier {
	entry := log.WithFields(log.Fields{"classifier": c.GetID(), "name": "CircuitBreaker"})

	minRequests := cfg.MinRequests
	failureRatio := cfg.FailureRatio

	settings := gobreaker.Settings{
		Name:        c.GetID(),
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.IntervalSec) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			entry.Warnf("Circuit breaker state changed from %s to %s", from, to)
		},
	}

	return &CircuitBreakerClassifier{
		classifier: c,
		cb:         gobreaker.NewCircuitBreaker(settings),
		log:        entry,
	}
}

// Classify runs the wrapped classifier through the breaker
func (cbc *CircuitBreakerClassifier) Classify(ctx context.Context, text string) (string, error) {
	res, err := cbc.cb.Execute(func() (interface{}, error) {
		return cbc.classifier.Classify(ctx, text)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// GetID returns the identifier of the wrapped classifier
func (cbc *CircuitBreakerClassifier) GetID() string {
	return cbc.classifier.GetID()
}

// State returns the current breaker state
func (cbc *CircuitBreakerClassifier) State() gobreaker.State {
	return cbc.cb.State()
}
