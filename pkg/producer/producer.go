// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package producer

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
	"github.com/snowplow-devops/stream-sentiment/pkg/retry"
	"github.com/snowplow-devops/stream-sentiment/pkg/target/targetiface"
)

const (
	// DefaultPartitionKey routes every produced record to the same shard
	DefaultPartitionKey = "Partition1"

	// DefaultPayload is the fixed record put onto the stream
	DefaultPayload = `{"foo":"bar"}`
)

// ProducerConfig configures the record put onto the stream
type ProducerConfig struct {
	PartitionKey  string `hcl:"partition_key,optional" env:"PRODUCER_PARTITION_KEY"`
	Payload       string `hcl:"payload,optional" env:"PRODUCER_PAYLOAD"`
	RetryAttempts int    `hcl:"retry_attempts,optional" env:"PRODUCER_RETRY_ATTEMPTS"`
	RetrySleepMs  int    `hcl:"retry_sleep_ms,optional" env:"PRODUCER_RETRY_SLEEP_MS"`
}

// DefaultProducerConfig returns the configuration of the fixed demo record
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		PartitionKey:  DefaultPartitionKey,
		Payload:       DefaultPayload,
		RetryAttempts: 3,
		RetrySleepMs:  100,
	}
}

// Producer puts one fixed record onto a target per call
type Producer struct {
	target       targetiface.Target
	partitionKey string
	payload      []byte
	attempts     int
	sleep        time.Duration

	log *log.Entry
}

// NewProducer validates the configuration and returns a Producer writing to t
func NewProducer(t targetiface.Target, cfg *ProducerConfig) (*Producer, error) {
	if cfg.PartitionKey == "" {
		return nil, errors.New("partition key must not be empty")
	}
	if !json.Valid([]byte(cfg.Payload)) {
		return nil, errors.Errorf("payload is not valid JSON: %s", cfg.Payload)
	}
	if len(cfg.Payload) > t.MaximumAllowedMessageSizeBytes() {
		return nil, errors.Errorf("payload of %d bytes exceeds the %d bytes allowed by target %s", len(cfg.Payload), t.MaximumAllowedMessageSizeBytes(), t.GetID())
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Producer{
		target:       t,
		partitionKey: cfg.PartitionKey,
		payload:      []byte(cfg.Payload),
		attempts:     attempts,
		sleep:        time.Duration(cfg.RetrySleepMs) * time.Millisecond,
		log:          log.WithFields(log.Fields{"name": "Producer", "target": t.GetID()}),
	}, nil
}

// Produce puts the record onto the target, retrying failed sends. The returned
// result is the one of the last attempt.
func (p *Producer) Produce(ctx context.Context) (*models.TargetWriteResult, error) {
	var res *models.TargetWriteResult

	err := retry.Retry(ctx, p.attempts, p.sleep, "Failed to produce record", func() error {
		msg := &models.Message{
			RecordID:     uuid.NewString(),
			PartitionKey: p.partitionKey,
			Data:         p.payload,
			TimeCreated:  time.Now().UTC(),
		}

		var err error
		res, err = p.target.Write(ctx, []*models.Message{msg})
		if err != nil {
			return err
		}
		if res.SentCount != 1 {
			return errors.Errorf("record was not sent: %d failed, %d oversized", res.FailedCount, res.OversizedCount)
		}
		return nil
	})
	if err != nil {
		p.log.WithFields(log.Fields{"partition_key": p.partitionKey}).Error(err)
		return res, err
	}

	p.log.WithFields(log.Fields{"partition_key": p.partitionKey}).Info("Record sent")
	return res, nil
}
