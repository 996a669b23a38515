// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// FirehoseEvent is the batch envelope Kinesis Data Firehose sends to a
// transformation Lambda.
//
// The aws-lambda-go event type decodes the record data as base64 while the
// envelope is unmarshalled, which turns a single bad record into a failure
// of the whole batch. Data is therefore kept as the raw base64 string here
// and decoded per record by the transformation stage.
type FirehoseEvent struct {
	InvocationID           string                `json:"invocationId"`
	DeliveryStreamArn      string                `json:"deliveryStreamArn"`
	SourceKinesisStreamArn string                `json:"sourceKinesisStreamArn,omitempty"`
	Region                 string                `json:"region"`
	Records                []FirehoseEventRecord `json:"records"`
}

// FirehoseEventRecord is a single record of a FirehoseEvent
type FirehoseEventRecord struct {
	RecordID                    string                                `json:"recordId"`
	ApproximateArrivalTimestamp events.MilliSecondsEpochTime          `json:"approximateArrivalTimestamp"`
	Data                        string                                `json:"data"`
	KinesisRecordMetadata       *events.KinesisFirehoseRecordMetadata `json:"kinesisRecordMetadata,omitempty"`
}

// FirehoseResponse is returned to Firehose, one record per input record
type FirehoseResponse struct {
	Records []FirehoseResponseRecord `json:"records"`
}

// FirehoseResponseRecord carries the outcome of a single record
type FirehoseResponseRecord struct {
	RecordID string `json:"recordId"`
	Result   string `json:"result"`
	Data     string `json:"data,omitempty"`
}

// Validate checks the envelope itself. A malformed envelope is a programming
// or wiring error and fails the whole invocation.
func (e *FirehoseEvent) Validate() error {
	if e == nil {
		return errors.New("firehose event is nil")
	}

	seen := make(map[string]int, len(e.Records))
	for i, record := range e.Records {
		if record.RecordID == "" {
			return fmt.Errorf("record at position %d has no recordId", i)
		}
		if prev, ok := seen[record.RecordID]; ok {
			return fmt.Errorf("recordId %q appears at positions %d and %d", record.RecordID, prev, i)
		}
		seen[record.RecordID] = i
	}
	return nil
}

// ToMessages converts the envelope records into messages, preserving order
func (e *FirehoseEvent) ToMessages() []*Message {
	timePulled := time.Now().UTC()

	messages := make([]*Message, len(e.Records))
	for i, record := range e.Records {
		msg := &Message{
			RecordID:     record.RecordID,
			OriginalData: []byte(record.Data),
			Data:         []byte(record.Data),
			TimeCreated:  record.ApproximateArrivalTimestamp.UTC(),
			TimePulled:   timePulled,
		}
		if record.KinesisRecordMetadata != nil {
			msg.PartitionKey = record.KinesisRecordMetadata.PartitionKey
		}
		messages[i] = msg
	}
	return messages
}

// NewFirehoseResponse builds the response from transformed messages. The
// messages must be in input order; any message carrying an error is reported
// as ProcessingFailed without data.
func NewFirehoseResponse(messages []*Message) *FirehoseResponse {
	records := make([]FirehoseResponseRecord, len(messages))
	for i, msg := range messages {
		if msg.GetError() != nil {
			records[i] = FirehoseResponseRecord{
				RecordID: msg.RecordID,
				Result:   events.KinesisFirehoseTransformedStateProcessingFailed,
			}
			continue
		}
		records[i] = FirehoseResponseRecord{
			RecordID: msg.RecordID,
			Result:   events.KinesisFirehoseTransformedStateOk,
			Data:     string(msg.Data),
		}
	}
	return &FirehoseResponse{Records: records}
}
