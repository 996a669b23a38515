// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/stream-sentiment/pkg/common"
	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

const (
	// API Documentation: https://docs.aws.amazon.com/kinesis/latest/APIReference/API_PutRecord.html

	// Each record can only be up to 1 MiB in size
	kinesisPutRecordMessageByteLimit = 1048576
)

// KinesisTargetConfig configures the stream produced records are put onto
type KinesisTargetConfig struct {
	StreamName        string `hcl:"stream_name" env:"STREAM_NAME"`
	Region            string `hcl:"region,optional" env:"TARGET_KINESIS_REGION"`
	RoleARN           string `hcl:"role_arn,optional" env:"TARGET_KINESIS_ROLE_ARN"`
	CustomAWSEndpoint string `hcl:"custom_aws_endpoint,optional" env:"TARGET_KINESIS_CUSTOM_AWS_ENDPOINT"`
}

// KinesisTarget holds a new client for writing messages to kinesis
type KinesisTarget struct {
	client     kinesisiface.KinesisAPI
	streamName string
	region     string
	accountID  string

	log *log.Entry
}

// newKinesisTarget creates a new client for writing messages to kinesis
func newKinesisTarget(region string, streamName string, roleARN string, customAWSEndpoint string) (*KinesisTarget, error) {
	if streamName == "" {
		return nil, errors.New("stream name must not be empty, set STREAM_NAME")
	}

	awsSession, awsConfig, awsAccountID, err := common.GetAWSSession(region, roleARN, customAWSEndpoint)
	if err != nil {
		return nil, err
	}
	kinesisClient := kinesis.New(awsSession, awsConfig)

	return newKinesisTargetWithInterfaces(kinesisClient, *awsAccountID, region, streamName)
}

// newKinesisTargetWithInterfaces allows you to provide a Kinesis client directly to allow
// for mocking and localstack usage
func newKinesisTargetWithInterfaces(client kinesisiface.KinesisAPI, awsAccountID string, region string, streamName string) (*KinesisTarget, error) {
	if streamName == "" {
		return nil, errors.New("stream name must not be empty, set STREAM_NAME")
	}

	return &KinesisTarget{
		client:     client,
		streamName: streamName,
		region:     region,
		accountID:  awsAccountID,
		log:        log.WithFields(log.Fields{"target": "kinesis", "cloud": "AWS", "region": region, "stream": streamName}),
	}, nil
}

// KinesisTargetConfigFunction creates KinesisTarget from KinesisTargetConfig.
func KinesisTargetConfigFunction(c *KinesisTargetConfig) (*KinesisTarget, error) {
	return newKinesisTarget(c.Region, c.StreamName, c.RoleARN, c.CustomAWSEndpoint)
}

// The KinesisTargetAdapter type is an adapter for functions to be used as
// pluggable components for Kinesis Target. Implements the Pluggable interface.
type KinesisTargetAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f KinesisTargetAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f KinesisTargetAdapter) ProvideDefault() (interface{}, error) {
	cfg := &KinesisTargetConfig{}

	return cfg, nil
}

// AdaptKinesisTargetFunc returns a KinesisTargetAdapter.
func AdaptKinesisTargetFunc(f func(c *KinesisTargetConfig) (*KinesisTarget, error)) KinesisTargetAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*KinesisTargetConfig)
		if !ok {
			return nil, errors.New("invalid input, expected KinesisTargetConfig")
		}

		return f(cfg)
	}
}

// Write puts every message onto the stream with its own PutRecord request.
// Failures are collected and returned together once every message was tried.
func (kt *KinesisTarget) Write(ctx context.Context, messages []*models.Message) (*models.TargetWriteResult, error) {
	kt.log.Debugf("Writing %d messages to stream ...", len(messages))

	safeMessages, oversized := models.FilterOversizedMessages(
		messages,
		kt.MaximumAllowedMessageSizeBytes(),
	)

	var sent []*models.Message
	var failed []*models.Message
	var errResult error

	for _, msg := range safeMessages {
		msg.TimeRequestStarted = time.Now().UTC()
		res, err := kt.client.PutRecordWithContext(ctx, &kinesis.PutRecordInput{
			Data:         msg.Data,
			PartitionKey: aws.String(msg.PartitionKey),
			StreamName:   aws.String(kt.streamName),
		})
		msg.TimeRequestFinished = time.Now().UTC()

		if err != nil {
			msg.SetError(err)
			failed = append(failed, msg)
			errResult = multierror.Append(errResult, errors.Wrap(err, "Failed to put record to Kinesis stream"))
			continue
		}

		kt.log.WithFields(log.Fields{
			"shard_id":        aws.StringValue(res.ShardId),
			"sequence_number": aws.StringValue(res.SequenceNumber),
		}).Debug("Put record")

		sent = append(sent, msg)
	}

	if errResult != nil {
		errResult = errors.Wrap(errResult, "Error writing messages to Kinesis stream")
	}

	writeResult := models.NewTargetWriteResult(sent, failed, oversized)

	kt.log.Debugf("Successfully wrote %d/%d messages", writeResult.SentCount, writeResult.Total())
	return writeResult, errResult
}

// Open does not do anything for this target
func (kt *KinesisTarget) Open() {}

// Close does not do anything for this target
func (kt *KinesisTarget) Close() {}

// MaximumAllowedMessageSizeBytes returns the max number of bytes that can be sent
// per message for this target
func (kt *KinesisTarget) MaximumAllowedMessageSizeBytes() int {
	return kinesisPutRecordMessageByteLimit
}

// GetID returns the identifier for this target
func (kt *KinesisTarget) GetID() string {
	return fmt.Sprintf("arn:aws:kinesis:%s:%s:stream/%s", kt.region, kt.accountID, kt.streamName)
}
