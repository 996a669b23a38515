// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package transform

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

// Stage runs a Firehose batch through a transformation and builds the
// per-record response
type Stage struct {
	apply TransformationApplyFunction

	log *log.Entry
}

// NewStage returns a Stage around the given transformation
func NewStage(apply TransformationApplyFunction) *Stage {
	return &Stage{
		apply: apply,
		log:   log.WithFields(log.Fields{"name": "TransformStage"}),
	}
}

// TransformBatch transforms every record of the event. The response holds one record per input
// record, in input order, with the input recordId. Per-record failures are reported as
// ProcessingFailed; an error is only returned when the envelope itself is malformed.
func (s *Stage) TransformBatch(ctx context.Context, event *models.FirehoseEvent) (*models.FirehoseResponse, *models.TransformationResult, error) {
	if err := event.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "Invalid Firehose event")
	}

	entry := s.log.WithFields(log.Fields{"invocation_id": event.InvocationID, "delivery_stream": event.DeliveryStreamArn})
	entry.Debugf("Transforming %d records ...", len(event.Records))

	res := s.apply(ctx, event.ToMessages())

	for _, msg := range res.Invalid {
		fields := log.Fields{"record_id": msg.RecordID, "error": msg.GetError()}
		if meta, ok := msg.GetError().(models.ErrorMetadata); ok {
			fields["error_type"] = meta.ReportableType()
			fields["error_code"] = meta.ReportableCode()
			fields["error_description"] = meta.ReportableDescription()
		}
		entry.WithFields(fields).Warn("Record failed transformation")
	}

	entry.Infof("Transformed %d records: %d ok, %d failed", len(res.Records), res.ResultCount, res.InvalidCount)
	return models.NewFirehoseResponse(res.Records), res, nil
}
