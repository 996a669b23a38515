// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/stream-sentiment/pkg/testutil"
)

type mockKinesisClient struct {
	kinesisiface.KinesisAPI

	inputs  []*kinesis.PutRecordInput
	failFor map[string]error
}

func (m *mockKinesisClient) PutRecordWithContext(ctx aws.Context, input *kinesis.PutRecordInput, opts ...request.Option) (*kinesis.PutRecordOutput, error) {
	m.inputs = append(m.inputs, input)
	if err, ok := m.failFor[string(input.Data)]; ok {
		return nil, err
	}
	return &kinesis.PutRecordOutput{
		ShardId:        aws.String("shardId-000000000000"),
		SequenceNumber: aws.String("49590338271490256608559692538361571095921575989136588898"),
	}, nil
}

func TestKinesisTarget_EmptyStreamName(t *testing.T) {
	assert := assert.New(t)

	target, err := newKinesisTargetWithInterfaces(&mockKinesisClient{}, "00000000000", testutil.AWSLocalstackRegion, "")
	assert.Nil(target)
	assert.EqualError(err, "stream name must not be empty, set STREAM_NAME")
}

func TestKinesisTarget_WriteMock(t *testing.T) {
	assert := assert.New(t)

	client := &mockKinesisClient{}
	target, err := newKinesisTargetWithInterfaces(client, "00000000000", testutil.AWSLocalstackRegion, "my-stream")
	assert.Nil(err)
	assert.Equal("arn:aws:kinesis:us-east-1:00000000000:stream/my-stream", target.GetID())

	messages := testutil.GetTestMessages(1, `{"foo":"bar"}`)
	messages[0].PartitionKey = "Partition1"

	writeRes, err := target.Write(context.Background(), messages)
	assert.Nil(err)
	assert.Equal(int64(1), writeRes.SentCount)

	assert.Len(client.inputs, 1)
	assert.Equal("my-stream", aws.StringValue(client.inputs[0].StreamName))
	assert.Equal("Partition1", aws.StringValue(client.inputs[0].PartitionKey))
	assert.Equal(`{"foo":"bar"}`, string(client.inputs[0].Data))
}

func TestKinesisTarget_WriteMockPartialFailure(t *testing.T) {
	assert := assert.New(t)

	client := &mockKinesisClient{
		failFor: map[string]error{"bad": awserr.New(kinesis.ErrCodeResourceNotFoundException, "Stream not found", nil)},
	}
	target, err := newKinesisTargetWithInterfaces(client, "00000000000", testutil.AWSLocalstackRegion, "my-stream")
	assert.Nil(err)

	messages := testutil.GetTestMessages(2, "good")
	messages = append(messages, testutil.GetTestMessages(1, "bad")...)
	messages = append(messages, testutil.GetTestMessages(1, testutil.GenRandomString(1048577))...)

	writeRes, err := target.Write(context.Background(), messages)
	assert.NotNil(err)
	if err != nil {
		assert.Contains(err.Error(), "Error writing messages to Kinesis stream: 1 error occurred:")
	}

	assert.Equal(int64(2), writeRes.SentCount)
	assert.Equal(int64(1), writeRes.FailedCount)
	assert.Equal(1, len(writeRes.Oversized))
	assert.NotNil(writeRes.Failed[0].GetError())
	assert.Len(client.inputs, 3)

	// Sent messages are reported through the result only
	for _, msg := range writeRes.Sent {
		assert.Equal("good", string(msg.Data))
		assert.Nil(msg.GetError())
		assert.False(msg.TimeRequestFinished.Before(msg.TimeRequestStarted))
	}
}

func TestKinesisTarget_WriteFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	assert := assert.New(t)

	client := testutil.GetAWSLocalstackKinesisClient()

	target, err := newKinesisTargetWithInterfaces(client, "00000000000", testutil.AWSLocalstackRegion, "not-exists")
	assert.Nil(err)
	assert.NotNil(target)

	defer target.Close()
	target.Open()

	messages := testutil.GetTestMessages(1, "Hello Kinesis!!")

	writeRes, err := target.Write(context.Background(), messages)
	assert.NotNil(err)
	if err != nil {
		assert.Contains(err.Error(), "Error writing messages to Kinesis stream: 1 error occurred:")
	}
	assert.NotNil(writeRes)

	// Check results
	assert.Equal(int64(0), writeRes.SentCount)
	assert.Equal(int64(1), writeRes.FailedCount)
}

func TestKinesisTarget_WriteSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	assert := assert.New(t)

	client := testutil.GetAWSLocalstackKinesisClient()

	streamName := "kinesis-stream-target-1"
	err := testutil.CreateAWSLocalstackKinesisStream(client, streamName)
	if err != nil {
		t.Fatal(err)
	}
	defer testutil.DeleteAWSLocalstackKinesisStream(client, streamName)

	target, err := newKinesisTargetWithInterfaces(client, "00000000000", testutil.AWSLocalstackRegion, streamName)
	assert.Nil(err)
	assert.NotNil(target)

	defer target.Close()
	target.Open()

	messages := testutil.GetTestMessages(10, "Hello Kinesis!!")
	messages = append(messages, testutil.GetTestMessages(1, testutil.GenRandomString(1048577))...)

	writeRes, err := target.Write(context.Background(), messages)
	assert.Nil(err)
	assert.NotNil(writeRes)

	// Check results
	assert.Equal(int64(10), writeRes.SentCount)
	assert.Equal(int64(0), writeRes.FailedCount)
	assert.Equal(1, len(writeRes.Oversized))

	records, err := testutil.GetAWSLocalstackKinesisRecords(client, streamName)
	assert.Nil(err)
	assert.Len(records, 10)
}
