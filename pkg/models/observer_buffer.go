// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"fmt"
	"time"

	"github.com/snowplow-devops/stream-sentiment/pkg/common"
)

// ObserverBuffer contains all the metrics we are processing
type ObserverBuffer struct {
	TransformResults int64
	RecordsOk        int64
	RecordsFailed    int64
	RecordsTotal     int64

	DecodeFailed         int64
	ClassificationFailed int64
	EncodeFailed         int64

	TargetResults int64
	MsgSent       int64
	MsgFailed     int64
	MsgTotal      int64

	MaxTransformLatency time.Duration
	MinTransformLatency time.Duration
	SumTransformLatency time.Duration
	MaxRequestLatency   time.Duration
	MinRequestLatency   time.Duration
	SumRequestLatency   time.Duration
}

// AppendTransformed adds a TransformationResult onto the buffer and stores the result
func (b *ObserverBuffer) AppendTransformed(res *TransformationResult) {
	if res == nil {
		return
	}

	b.TransformResults++
	b.RecordsOk += res.ResultCount
	b.RecordsFailed += res.InvalidCount
	b.RecordsTotal += res.ResultCount + res.InvalidCount

	b.DecodeFailed += res.CountByErrorType(ErrorTypeDecode)
	b.ClassificationFailed += res.CountByErrorType(ErrorTypeClassification)
	b.EncodeFailed += res.CountByErrorType(ErrorTypeEncode)

	if b.MaxTransformLatency < res.MaxTransformLatency {
		b.MaxTransformLatency = res.MaxTransformLatency
	}
	if b.MinTransformLatency > res.MinTransformLatency || b.MinTransformLatency == time.Duration(0) {
		b.MinTransformLatency = res.MinTransformLatency
	}
	b.SumTransformLatency += res.AvgTransformLatency
}

// AppendWrite adds a TargetWriteResult onto the buffer and stores the result
func (b *ObserverBuffer) AppendWrite(res *TargetWriteResult) {
	if res == nil {
		return
	}

	b.TargetResults++
	b.MsgSent += res.SentCount
	b.MsgFailed += res.FailedCount
	b.MsgTotal += res.Total()

	if b.MaxRequestLatency < res.MaxRequestLatency {
		b.MaxRequestLatency = res.MaxRequestLatency
	}
	if b.MinRequestLatency > res.MinRequestLatency || b.MinRequestLatency == time.Duration(0) {
		b.MinRequestLatency = res.MinRequestLatency
	}
	b.SumRequestLatency += res.AvgRequestLatency
}

// GetAvgTransformLatency calculates average transformation latency
func (b *ObserverBuffer) GetAvgTransformLatency() time.Duration {
	return common.GetAverageFromDuration(b.SumTransformLatency, b.TransformResults)
}

// GetAvgRequestLatency calculates average target request latency
func (b *ObserverBuffer) GetAvgRequestLatency() time.Duration {
	return common.GetAverageFromDuration(b.SumRequestLatency, b.TargetResults)
}

func (b *ObserverBuffer) String() string {
	return fmt.Sprintf(
		"TransformResults:%d,RecordsOk:%d,RecordsFailed:%d,DecodeFailed:%d,ClassificationFailed:%d,EncodeFailed:%d,TargetResults:%d,MsgSent:%d,MsgFailed:%d,MaxTransformLatency:%d,MaxRequestLatency:%d",
		b.TransformResults,
		b.RecordsOk,
		b.RecordsFailed,
		b.DecodeFailed,
		b.ClassificationFailed,
		b.EncodeFailed,
		b.TargetResults,
		b.MsgSent,
		b.MsgFailed,
		b.MaxTransformLatency.Milliseconds(),
		b.MaxRequestLatency.Milliseconds(),
	)
}
