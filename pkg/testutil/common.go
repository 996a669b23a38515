// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	seededRand *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenRandomString can produce a random string of any provided length which is
// useful for testing situations that might have byte limitations
func GenRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// GetTestMessages will return an array of messages ready to be used for testing
// targets
func GetTestMessages(count int, body string) []*models.Message {
	var messages []*models.Message
	for i := 0; i < count; i++ {
		messages = append(messages, &models.Message{
			RecordID:     fmt.Sprintf("%d", i),
			Data:         []byte(body),
			PartitionKey: uuid.NewString(),
		})
	}
	return messages
}

// GetFirehoseEvent returns a Firehose event with one record per raw payload.
// Record ids are the position of the payload in the slice, starting from 1.
func GetFirehoseEvent(payloads ...string) *models.FirehoseEvent {
	records := make([]models.FirehoseEventRecord, len(payloads))
	for i, payload := range payloads {
		records[i] = models.FirehoseEventRecord{
			RecordID: fmt.Sprintf("%d", i+1),
			Data:     base64.StdEncoding.EncodeToString([]byte(payload)),
		}
	}
	return &models.FirehoseEvent{
		InvocationID:      uuid.NewString(),
		DeliveryStreamArn: "arn:aws:firehose:us-east-1:00000000000:deliverystream/test",
		Region:            AWSLocalstackRegion,
		Records:           records,
	}
}

// DecodeEnrichedPayload reverses the wire encoding of a response record
func DecodeEnrichedPayload(data string) (*models.EnrichedPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return models.UnmarshalEnrichedPayload(raw)
}
