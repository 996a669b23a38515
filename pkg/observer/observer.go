// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package observer

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
	"github.com/snowplow-devops/stream-sentiment/pkg/statsreceiver/statsreceiveriface"
)

// Observer holds the channels and settings for aggregating telemetry from transformed batches
// and produced records and emitting them to downstream destinations
type Observer struct {
	statsClient     statsreceiveriface.StatsReceiver
	exitSignal      chan struct{}
	stopDone        chan struct{}
	flushSignal     chan chan struct{}
	transformedChan chan *models.TransformationResult
	targetWriteChan chan *models.TargetWriteResult
	timeout         time.Duration
	reportInterval  time.Duration
	isRunning       bool

	log *log.Entry
}

// New builds a new observer to be used to gather telemetry
// about transformations and target writes
func New(statsClient statsreceiveriface.StatsReceiver, timeout time.Duration, reportInterval time.Duration) *Observer {
	return &Observer{
		statsClient:     statsClient,
		exitSignal:      make(chan struct{}),
		stopDone:        make(chan struct{}),
		flushSignal:     make(chan chan struct{}),
		transformedChan: make(chan *models.TransformationResult, 1000),
		targetWriteChan: make(chan *models.TargetWriteResult, 1000),
		timeout:         timeout,
		reportInterval:  reportInterval,
		log:             log.WithFields(log.Fields{"name": "Observer"}),
		isRunning:       false,
	}
}

// Start launches a goroutine which processes results from transformations and target writes
func (o *Observer) Start() {
	if o.isRunning {
		o.log.Warn("Observer is already running")
		return
	}
	o.isRunning = true

	go func() {
		reportTime := time.Now().UTC().Add(o.reportInterval)
		buffer := models.ObserverBuffer{}

		report := func() {
			o.log.Infof(buffer.String())
			if o.statsClient != nil {
				o.statsClient.Send(&buffer)
			}
			reportTime = time.Now().UTC().Add(o.reportInterval)
			buffer = models.ObserverBuffer{}
		}

	ObserverLoop:
		for {
			select {
			case <-o.exitSignal:
				o.log.Warn("Received exit signal, shutting down Observer ...")

				// Attempt final flush
				o.drain(&buffer)
				report()
				break ObserverLoop
			case done := <-o.flushSignal:
				o.drain(&buffer)
				report()
				close(done)
				continue
			case res := <-o.transformedChan:
				buffer.AppendTransformed(res)
			case res := <-o.targetWriteChan:
				buffer.AppendWrite(res)
			case <-time.After(o.timeout):
				o.log.Debugf("Observer timed out after (%v) waiting for result", o.timeout)
			}

			if time.Now().UTC().After(reportTime) {
				report()
			}
		}
		o.isRunning = false
		o.stopDone <- struct{}{}
	}()
}

// drain consumes every result already queued so that a flush reports them
func (o *Observer) drain(buffer *models.ObserverBuffer) {
	for {
		select {
		case res := <-o.transformedChan:
			buffer.AppendTransformed(res)
		case res := <-o.targetWriteChan:
			buffer.AppendWrite(res)
		default:
			return
		}
	}
}

// Stop issues a signal to halt observer processing
func (o *Observer) Stop() {
	o.log.Info("Observer Stop() called")
	if o.isRunning {
		o.exitSignal <- struct{}{}
		<-o.stopDone
	}
}

// Flush reports everything observed so far and blocks until it is sent. A
// Lambda container may be frozen between invocations, so handlers flush
// before returning.
func (o *Observer) Flush() {
	if !o.isRunning {
		return
	}
	done := make(chan struct{})
	o.flushSignal <- done
	<-done
}

// --- Functions called to push information to observer

// Transformed pushes a transformation result onto a channel for processing
// by the observer
func (o *Observer) Transformed(r *models.TransformationResult) {
	o.transformedChan <- r
}

// TargetWrite pushes a targets write result onto a channel for processing
// by the observer
func (o *Observer) TargetWrite(r *models.TargetWriteResult) {
	o.targetWriteChan <- r
}
