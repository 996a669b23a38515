// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/stream-sentiment/config"
	"github.com/snowplow-devops/stream-sentiment/pkg/models"
	"github.com/snowplow-devops/stream-sentiment/pkg/observer"
	"github.com/snowplow-devops/stream-sentiment/pkg/producer"
	"github.com/snowplow-devops/stream-sentiment/pkg/target/targetiface"
	"github.com/snowplow-devops/stream-sentiment/pkg/transform"
)

// Handles are built by the first invocation a container serves and reused by
// every following one. A failed build is retried on the next invocation.
var (
	transformerMu sync.Mutex
	transformer   *TransformerHandler

	producerMu      sync.Mutex
	producerHandler *ProducerHandler
)

// TransformerHandler serves Firehose transformation invocations
type TransformerHandler struct {
	stage         *transform.Stage
	observer      *observer.Observer
	sentryEnabled bool
}

// NewTransformerHandler wires a stage and an observer into a handler
func NewTransformerHandler(stage *transform.Stage, obs *observer.Observer, sentryEnabled bool) *TransformerHandler {
	return &TransformerHandler{
		stage:         stage,
		observer:      obs,
		sentryEnabled: sentryEnabled,
	}
}

// Handle transforms one Firehose batch. Per-record failures are part of the
// response; only a malformed envelope returns an error.
func (h *TransformerHandler) Handle(ctx context.Context, event *models.FirehoseEvent) (*models.FirehoseResponse, error) {
	if h.sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	resp, res, err := h.stage.TransformBatch(ctx, event)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error(err)
		return nil, err
	}

	if h.observer != nil {
		h.observer.Transformed(res)
		h.observer.Flush()
	}
	return resp, nil
}

func getTransformer() (*TransformerHandler, error) {
	transformerMu.Lock()
	defer transformerMu.Unlock()

	if transformer != nil {
		return transformer, nil
	}

	cfg, sentryEnabled, err := Init()
	if err != nil {
		return nil, err
	}

	cl, err := cfg.GetClassifier()
	if err != nil {
		return nil, err
	}

	tr, err := cfg.GetTransformation(cl)
	if err != nil {
		return nil, err
	}

	tags, err := cfg.GetTags()
	if err != nil {
		return nil, err
	}

	obs, err := cfg.GetObserver(tags)
	if err != nil {
		return nil, err
	}
	obs.Start()

	log.WithFields(log.Fields{"classifier": cl.GetID()}).Info("Transformer initialised")

	transformer = NewTransformerHandler(transform.NewStage(tr), obs, sentryEnabled)
	return transformer, nil
}

// FirehoseRequestHandler is the Lambda entry point of the transformation stage
func FirehoseRequestHandler(ctx context.Context, event models.FirehoseEvent) (*models.FirehoseResponse, error) {
	h, err := getTransformer()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Failed to initialise transformer")
		return nil, errors.Wrap(err, "Failed to initialise transformer")
	}
	return h.Handle(ctx, &event)
}

// ProducerResponse reports the outcome of a producer invocation
type ProducerResponse struct {
	Target string `json:"target"`
	Sent   int64  `json:"sent"`
}

// ProducerHandler serves producer invocations
type ProducerHandler struct {
	producer      *producer.Producer
	targetID      string
	observer      *observer.Observer
	sentryEnabled bool
}

// NewProducerHandler wires a producer and an observer into a handler
func NewProducerHandler(p *producer.Producer, targetID string, obs *observer.Observer, sentryEnabled bool) *ProducerHandler {
	return &ProducerHandler{
		producer:      p,
		targetID:      targetID,
		observer:      obs,
		sentryEnabled: sentryEnabled,
	}
}

// Handle puts the fixed record onto the target and reports whether it was sent
func (h *ProducerHandler) Handle(ctx context.Context) (*ProducerResponse, error) {
	if h.sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	res, err := h.producer.Produce(ctx)
	if h.observer != nil && res != nil {
		h.observer.TargetWrite(res)
		h.observer.Flush()
	}
	if err != nil {
		return nil, err
	}

	return &ProducerResponse{
		Target: h.targetID,
		Sent:   res.SentCount,
	}, nil
}

func getProducer() (*ProducerHandler, error) {
	producerMu.Lock()
	defer producerMu.Unlock()

	if producerHandler != nil {
		return producerHandler, nil
	}

	cfg, sentryEnabled, err := Init()
	if err != nil {
		return nil, err
	}

	t, err := cfg.GetTarget()
	if err != nil {
		return nil, err
	}

	h, err := newProducerHandlerFromConfig(cfg, t, sentryEnabled)
	if err != nil {
		return nil, err
	}

	producerHandler = h
	return producerHandler, nil
}

// newProducerHandlerFromConfig builds everything the producer needs around t and
// only opens t once nothing else can fail
func newProducerHandlerFromConfig(cfg *config.Config, t targetiface.Target, sentryEnabled bool) (*ProducerHandler, error) {
	p, err := cfg.GetProducer(t)
	if err != nil {
		return nil, err
	}

	tags, err := cfg.GetTags()
	if err != nil {
		return nil, err
	}

	obs, err := cfg.GetObserver(tags)
	if err != nil {
		return nil, err
	}

	t.Open()
	obs.Start()

	log.WithFields(log.Fields{"target": t.GetID()}).Info("Producer initialised")

	return NewProducerHandler(p, t.GetID(), obs, sentryEnabled), nil
}

// ProducerRequestHandler is the Lambda entry point of the producer
func ProducerRequestHandler(ctx context.Context) (*ProducerResponse, error) {
	h, err := getProducer()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Failed to initialise producer")
		return nil, errors.Wrap(err, "Failed to initialise producer")
	}
	return h.Handle(ctx)
}
