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

// TransformationResult holds the outcome of running a batch through the
// transformation stage
type TransformationResult struct {
	ResultCount  int64
	InvalidCount int64

	// Records holds one message per input message, in input order. Failed
	// messages carry their error, successful ones their transformed data.
	Records []*Message

	// Result holds all the messages that were successfully transformed
	Result []*Message

	// Invalid contains all the messages that could not be transformed.
	// They are never retried by this application.
	Invalid []*Message

	MaxTransformLatency time.Duration
	MinTransformLatency time.Duration
	AvgTransformLatency time.Duration
}

// NewTransformationResult splits the ordered records into successes and
// failures and derives latency measures from TimePulled -> TimeTransformed.
func NewTransformationResult(records []*Message) *TransformationResult {
	r := TransformationResult{
		Records: records,
		Result:  make([]*Message, 0, len(records)),
		Invalid: make([]*Message, 0),
	}

	var sumLatency time.Duration
	for _, msg := range records {
		if msg.GetError() != nil {
			r.Invalid = append(r.Invalid, msg)
			continue
		}
		r.Result = append(r.Result, msg)

		if msg.TimePulled.IsZero() || msg.TimeTransformed.IsZero() {
			continue
		}
		latency := msg.TimeTransformed.Sub(msg.TimePulled)
		if r.MaxTransformLatency < latency {
			r.MaxTransformLatency = latency
		}
		if r.MinTransformLatency > latency || r.MinTransformLatency == time.Duration(0) {
			r.MinTransformLatency = latency
		}
		sumLatency += latency
	}

	r.ResultCount = int64(len(r.Result))
	r.InvalidCount = int64(len(r.Invalid))
	r.AvgTransformLatency = common.GetAverageFromDuration(sumLatency, r.ResultCount)

	return &r
}

// CountByErrorType returns how many invalid messages failed with the given
// reportable error type
func (r *TransformationResult) CountByErrorType(errorType string) int64 {
	var count int64
	for _, msg := range r.Invalid {
		if meta, ok := msg.GetError().(ErrorMetadata); ok && meta.ReportableType() == errorType {
			count++
		}
	}
	return count
}
