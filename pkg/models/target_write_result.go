// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"time"

	"github.com/snowplow-devops/stream-sentiment/pkg/common"
)

// TargetWriteResult contains the results from a target write operation
type TargetWriteResult struct {
	SentCount      int64
	FailedCount    int64
	OversizedCount int64

	// Sent holds all the messages that were successfully sent to the target
	// and therefore have been acked by the target successfully.
	Sent []*Message

	// Failed holds all the messages that failed to be sent to the target
	// and therefore should be retried.
	Failed []*Message

	// Oversized holds all the messages that were too big to be sent to
	// the downstream target
	Oversized []*Message

	// Delta between TimeRequestStarted and TimeRequestFinished
	MaxRequestLatency time.Duration
	MinRequestLatency time.Duration
	AvgRequestLatency time.Duration
}

// NewTargetWriteResult builds a result structure to return from a target write
// attempt which contains the sent and failed messages as well as the request
// latency of the sent ones.
func NewTargetWriteResult(sent []*Message, failed []*Message, oversized []*Message) *TargetWriteResult {
	r := TargetWriteResult{
		SentCount:      int64(len(sent)),
		FailedCount:    int64(len(failed)),
		OversizedCount: int64(len(oversized)),
		Sent:           sent,
		Failed:         failed,
		Oversized:      oversized,
	}

	var sumRequestLatency time.Duration
	for _, msg := range sent {
		requestLatency := msg.TimeRequestFinished.Sub(msg.TimeRequestStarted)
		if r.MaxRequestLatency < requestLatency {
			r.MaxRequestLatency = requestLatency
		}
		if r.MinRequestLatency > requestLatency || r.MinRequestLatency == time.Duration(0) {
			r.MinRequestLatency = requestLatency
		}
		sumRequestLatency += requestLatency
	}
	r.AvgRequestLatency = common.GetAverageFromDuration(sumRequestLatency, r.SentCount)

	return &r
}

// Total returns the sum of Sent + Failed messages
func (wr *TargetWriteResult) Total() int64 {
	return wr.SentCount + wr.FailedCount
}

// Append will add another write result to the source one to allow for
// result concatenation and then return the resultant struct
func (wr *TargetWriteResult) Append(nwr *TargetWriteResult) *TargetWriteResult {
	wrC := *wr

	if nwr != nil {
		wrC.SentCount += nwr.SentCount
		wrC.FailedCount += nwr.FailedCount
		wrC.OversizedCount += nwr.OversizedCount
		wrC.Sent = append(wrC.Sent, nwr.Sent...)
		wrC.Failed = append(wrC.Failed, nwr.Failed...)
		wrC.Oversized = append(wrC.Oversized, nwr.Oversized...)

		if wrC.MaxRequestLatency < nwr.MaxRequestLatency {
			wrC.MaxRequestLatency = nwr.MaxRequestLatency
		}
		if wrC.MinRequestLatency > nwr.MinRequestLatency || wrC.MinRequestLatency == time.Duration(0) {
			wrC.MinRequestLatency = nwr.MinRequestLatency
		}
		wrC.AvgRequestLatency = common.GetAverageFromDuration(wrC.AvgRequestLatency+nwr.AvgRequestLatency, 2)
	}

	return &wrC
}
