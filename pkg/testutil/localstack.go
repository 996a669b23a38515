// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
)

var (
	// AWSLocalstackEndpoint is the default endpoint localstack runs under
	AWSLocalstackEndpoint = "http://localhost:4566"

	// AWSLocalstackRegion is the default region we are using for testing
	AWSLocalstackRegion = "us-east-1"
)

// GetAWSLocalstackSession will return an AWS session ready to interact with localstack
func GetAWSLocalstackSession() *session.Session {
	return session.Must(session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials("foo", "var", ""),
		S3ForcePathStyle: aws.Bool(true),
		Region:           aws.String(AWSLocalstackRegion),
		Endpoint:         aws.String(AWSLocalstackEndpoint),
	}))
}

// --- Kinesis Testing

// GetAWSLocalstackKinesisClient returns a Kinesis client
func GetAWSLocalstackKinesisClient() kinesisiface.KinesisAPI {
	return kinesis.New(GetAWSLocalstackSession())
}

// CreateAWSLocalstackKinesisStream creates a new Kinesis stream and polls until
// the stream is in an ACTIVE state
func CreateAWSLocalstackKinesisStream(client kinesisiface.KinesisAPI, streamName string) error {
	_, err := client.CreateStream(&kinesis.CreateStreamInput{
		StreamName: aws.String(streamName),
		ShardCount: aws.Int64(1),
	})
	if err != nil {
		return err
	}

	return client.WaitUntilStreamExists(&kinesis.DescribeStreamInput{
		StreamName: aws.String(streamName),
	})
}

// DeleteAWSLocalstackKinesisStream deletes an existing Kinesis stream
func DeleteAWSLocalstackKinesisStream(client kinesisiface.KinesisAPI, streamName string) (*kinesis.DeleteStreamOutput, error) {
	return client.DeleteStream(&kinesis.DeleteStreamInput{
		StreamName: aws.String(streamName),
	})
}

// GetAWSLocalstackKinesisRecords reads every record currently on the single
// shard of a localstack stream
func GetAWSLocalstackKinesisRecords(client kinesisiface.KinesisAPI, streamName string) ([]*kinesis.Record, error) {
	shards, err := client.ListShards(&kinesis.ListShardsInput{
		StreamName: aws.String(streamName),
	})
	if err != nil {
		return nil, err
	}

	var records []*kinesis.Record
	for _, shard := range shards.Shards {
		iterator, err := client.GetShardIterator(&kinesis.GetShardIteratorInput{
			StreamName:        aws.String(streamName),
			ShardId:           shard.ShardId,
			ShardIteratorType: aws.String(kinesis.ShardIteratorTypeTrimHorizon),
		})
		if err != nil {
			return nil, err
		}

		res, err := client.GetRecords(&kinesis.GetRecordsInput{
			ShardIterator: iterator.ShardIterator,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, res.Records...)
	}
	return records, nil
}
