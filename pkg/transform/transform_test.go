// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package transform

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

func testMessages(count int) []*models.Message {
	messages := make([]*models.Message, count)
	for i := range messages {
		messages[i] = &models.Message{
			RecordID:     fmt.Sprintf("%d", i),
			Data:         []byte(fmt.Sprintf("payload-%d", i)),
			PartitionKey: "some-key",
			TimePulled:   time.Now().UTC(),
		}
	}
	return messages
}

func upperCase(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
	message.Data = []byte(fmt.Sprintf("UPPER-%s", message.Data))
	return message, nil, intermediateState
}

func failOdd(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
	var n int
	fmt.Sscanf(message.RecordID, "%d", &n)
	if n%2 == 1 {
		message.SetError(&models.DecodeError{SafeMessage: "odd", Err: errors.New("odd record")})
		return nil, message, nil
	}
	return message, nil, intermediateState
}

func panicOnTwo(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
	if message.RecordID == "2" {
		panic("classifier blew up")
	}
	return message, nil, intermediateState
}

func TestNewTransformation_PanicFailsOnlyThatRecord(t *testing.T) {
	assert := assert.New(t)

	messages := testMessages(4)
	transformation := NewTransformation(0, upperCase, panicOnTwo)
	res := transformation(context.Background(), messages)

	assert.Len(res.Records, 4)
	assert.Equal(int64(3), res.ResultCount)
	assert.Equal(int64(1), res.InvalidCount)

	failed := res.Records[2]
	assert.Equal("2", failed.RecordID)
	assert.EqualError(failed.GetError(), "panic during transformation: classifier blew up")
	cerr, ok := failed.GetError().(*models.ClassificationError)
	if assert.True(ok) {
		assert.Equal(models.ErrorTypeClassification, cerr.ReportableType())
		assert.Equal("record transformation panicked", cerr.ReportableDescription())
	}
	assert.Equal(int64(1), res.CountByErrorType(models.ErrorTypeClassification))

	for _, i := range []int{0, 1, 3} {
		assert.Nil(res.Records[i].GetError())
		assert.Equal(fmt.Sprintf("UPPER-payload-%d", i), string(res.Records[i].Data))
	}

	// The input is left untouched
	assert.Nil(messages[2].GetError())
	assert.Equal("payload-2", string(messages[2].Data))
}

func TestNewTransformation_Passthrough(t *testing.T) {
	assert := assert.New(t)

	messages := testMessages(4)
	noTransform := NewTransformation(0)
	res := noTransform(context.Background(), messages)

	assert.Equal(int64(4), res.ResultCount)
	assert.Equal(int64(0), res.InvalidCount)
	for i, msg := range res.Records {
		assert.Equal(messages[i].RecordID, msg.RecordID)
		assert.Equal(messages[i].Data, msg.Data)
	}
}

func TestNewTransformation_PreservesOrderAndDoesNotMutateInput(t *testing.T) {
	assert := assert.New(t)

	messages := testMessages(50)
	transformation := NewTransformation(8, upperCase, failOdd)
	res := transformation(context.Background(), messages)

	assert.Len(res.Records, 50)
	assert.Equal(int64(25), res.ResultCount)
	assert.Equal(int64(25), res.InvalidCount)

	for i, msg := range res.Records {
		assert.Equal(fmt.Sprintf("%d", i), msg.RecordID)
		if i%2 == 1 {
			assert.NotNil(msg.GetError())
		} else {
			assert.Nil(msg.GetError())
			assert.Equal(fmt.Sprintf("UPPER-payload-%d", i), string(msg.Data))
			assert.False(msg.TimeTransformed.IsZero())
		}

		// Input untouched
		assert.Equal(fmt.Sprintf("payload-%d", i), string(messages[i].Data))
		assert.Nil(messages[i].GetError())
	}
}

func TestNewTransformation_ConcurrencyLimit(t *testing.T) {
	assert := assert.New(t)

	var inFlight, maxSeen int64
	slow := func(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			seen := atomic.LoadInt64(&maxSeen)
			if current <= seen || atomic.CompareAndSwapInt64(&maxSeen, seen, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return message, nil, intermediateState
	}

	transformation := NewTransformation(3, slow)
	res := transformation(context.Background(), testMessages(20))

	assert.Equal(int64(20), res.ResultCount)
	assert.LessOrEqual(atomic.LoadInt64(&maxSeen), int64(3))
}

func TestNewTransformation_EmptyBatch(t *testing.T) {
	assert := assert.New(t)

	transformation := NewTransformation(0, upperCase)
	res := transformation(context.Background(), []*models.Message{})

	assert.Len(res.Records, 0)
	assert.Equal(int64(0), res.ResultCount)
	assert.Equal(int64(0), res.InvalidCount)
}
