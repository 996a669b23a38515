// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"fmt"
	"time"
)

// Message holds the structure of a single record flowing through the
// transformation stage or out to a target
type Message struct {
	// RecordID is the identifier assigned by the upstream delivery stream.
	// It must be echoed back unchanged on the matching output record.
	RecordID string

	PartitionKey string
	OriginalData []byte
	Data         []byte

	// TimeCreated is when the message was created originally
	TimeCreated time.Time

	// TimePulled is when the message was received by this application
	TimePulled time.Time

	// TimeTransformed is when the message has completed its last successful transform function
	TimeTransformed time.Time

	// Time the request began, to measure request latency for debugging purposes
	TimeRequestStarted time.Time

	// Time the request was done, to measure request latency for debugging purposes
	TimeRequestFinished time.Time

	// If the message is invalid it can be decorated with an error
	// message for logging and reporting
	err error
}

// SetError sets the value of the message error in case of invalidation
func (m *Message) SetError(err error) {
	m.err = err
}

// GetError returns the error that has been set
func (m *Message) GetError() error {
	return m.err
}

func (m *Message) String() string {
	return fmt.Sprintf(
		"RecordID:%s,PartitionKey:%s,TimeCreated:%v,TimePulled:%v,TimeTransformed:%v,Data:%s",
		m.RecordID,
		m.PartitionKey,
		m.TimeCreated,
		m.TimePulled,
		m.TimeTransformed,
		string(m.Data),
	)
}

// FilterOversizedMessages will filter out all messages that exceed the byte size limit
func FilterOversizedMessages(messages []*Message, maxMessageByteSize int) (safe []*Message, oversized []*Message) {
	for _, msg := range messages {
		msgByteLen := len(msg.Data)

		if msgByteLen > maxMessageByteSize {
			oversized = append(oversized, msg)
		} else {
			safe = append(safe, msg)
		}
	}
	return safe, oversized
}
