// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/stream-sentiment/assets"
	"github.com/snowplow-devops/stream-sentiment/cmd"
	"github.com/snowplow-devops/stream-sentiment/config"
	"github.com/snowplow-devops/stream-sentiment/pkg/models"
	"github.com/snowplow-devops/stream-sentiment/pkg/testutil"
)

func TestMain(m *testing.M) {
	os.Clearenv()
	exitVal := m.Run()
	os.Exit(exitVal)
}

func newTestApp(t *testing.T) (*bytes.Buffer, func(args ...string) error) {
	cfg, err := config.NewConfig()
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	app := NewApp(context.Background(), cfg, false)
	app.Writer = &out

	return &out, func(args ...string) error {
		return app.Run(append([]string{appName}, args...))
	}
}

func TestTransformCommand(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("CLASSIFIER_NAME", "static")
	t.Setenv("CLASSIFIER_STATIC_LABEL", "POSITIVE")

	out, run := newTestApp(t)
	err := run("transform", "--file", assets.FixturePath("firehose_event.json"))
	assert.Nil(err)

	var resp models.FirehoseResponse
	assert.Nil(json.Unmarshal(out.Bytes(), &resp))
	if assert.Len(resp.Records, 2) {
		assert.Equal("49546986683135544286507457936321625675700192471156785154", resp.Records[0].RecordID)
		assert.Equal(events.KinesisFirehoseTransformedStateOk, resp.Records[0].Result)
		assert.Equal("49546986683135544286507457936321625675700192471156785155", resp.Records[1].RecordID)
		assert.Equal(events.KinesisFirehoseTransformedStateProcessingFailed, resp.Records[1].Result)

		payload, err := testutil.DecodeEnrichedPayload(resp.Records[0].Data)
		assert.Nil(err)
		assert.Equal("POSITIVE", payload.Classification)
		assert.Equal("great product", payload.Text)
		assert.NotEmpty(payload.ID)
	}
}

func TestTransformCommand_MissingFile(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("CLASSIFIER_NAME", "static")
	t.Setenv("CLASSIFIER_STATIC_LABEL", "POSITIVE")

	out, run := newTestApp(t)
	err := run("transform", "--file", assets.FixturePath("missing.json"))
	assert.NotNil(err)
	if err != nil {
		assert.Contains(err.Error(), "Failed to read Firehose event")
	}
	assert.Empty(out.String())
}

func TestTransformCommand_InvalidEvent(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("CLASSIFIER_NAME", "static")
	t.Setenv("CLASSIFIER_STATIC_LABEL", "POSITIVE")

	_, run := newTestApp(t)
	err := run("transform", "--file", assets.FixturePath("invalid.hcl"))
	assert.NotNil(err)
	if err != nil {
		assert.Contains(err.Error(), "Failed to parse Firehose event")
	}
}

func TestTransformCommand_InvalidClassifier(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("CLASSIFIER_NAME", "fake")

	_, run := newTestApp(t)
	err := run("transform", "--file", assets.FixturePath("firehose_event.json"))
	assert.EqualError(err, "Invalid classifier found; expected one of 'comprehend, static' and got 'fake'")
}

func TestProduceCommand(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("TARGET_NAME", "stdout")

	out, run := newTestApp(t)
	err := run("produce")
	assert.Nil(err)

	var resp cmd.ProducerResponse
	assert.Nil(json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(cmd.ProducerResponse{Target: "stdout", Sent: 1}, resp)
}

func TestProduceCommand_InvalidTarget(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("TARGET_NAME", "fake")

	_, run := newTestApp(t)
	err := run("produce")
	assert.EqualError(err, "Invalid target found; expected one of 'stdout, kinesis' and got 'fake'")
}
