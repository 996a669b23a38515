// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package transform

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
	"github.com/snowplow-devops/stream-sentiment/pkg/testutil"
)

func TestJSONTextExtract(t *testing.T) {
	extract := NewJSONTextExtractFunction("data")

	testCases := []struct {
		Name        string
		Data        string
		Text        string
		Description string
	}{
		{"valid", `{"data":"great product","other":1}`, "great product", ""},
		{"not json", `not json`, "", "failed to parse data as a JSON object"},
		{"json array", `["great product"]`, "", "failed to parse data as a JSON object"},
		{"json null", `null`, "", "failed to parse data as a JSON object"},
		{"missing field", `{"foo":"bar"}`, "", `field "data" not found in payload`},
		{"number field", `{"data":42}`, "", `field "data" is not a string`},
		{"empty field", `{"data":""}`, "", `field "data" is empty`},
		{"invalid utf-8", "{\"data\":\"x\xffy\"}", "", "data is not valid UTF-8"},
		{"non-ascii text", `{"data":"très bien"}`, "très bien", ""},
	}

	for _, tt := range testCases {
		t.Run(tt.Name, func(t *testing.T) {
			assert := assert.New(t)

			success, failure, state := extract(context.Background(), &models.Message{Data: []byte(tt.Data)}, nil)
			if tt.Description == "" {
				assert.Nil(failure)
				assert.NotNil(success)
				assert.Equal(tt.Text, state.(*sentimentState).Text)
				return
			}

			assert.Nil(success)
			assert.NotNil(failure)
			var decodeErr *models.DecodeError
			assert.ErrorAs(failure.GetError(), &decodeErr)
			assert.Equal(tt.Description, decodeErr.ReportableDescription())
		})
	}
}

func TestJSONTextExtract_CustomField(t *testing.T) {
	assert := assert.New(t)

	extract := NewJSONTextExtractFunction("review")
	_, failure, state := extract(context.Background(), &models.Message{Data: []byte(`{"review":"meh","data":"ignored"}`)}, nil)

	assert.Nil(failure)
	assert.Equal("meh", state.(*sentimentState).Text)
}

func TestClassifyFunction(t *testing.T) {
	assert := assert.New(t)

	classify := NewClassifyFunction(&testutil.MockClassifier{Labels: map[string]string{"great product": "POSITIVE"}})
	success, failure, state := classify(context.Background(), &models.Message{}, &sentimentState{Text: "great product"})

	assert.Nil(failure)
	assert.NotNil(success)
	assert.Equal("POSITIVE", state.(*sentimentState).Classification)
}

func TestClassifyFunction_NoState(t *testing.T) {
	assert := assert.New(t)

	classify := NewClassifyFunction(&testutil.MockClassifier{Default: "NEUTRAL"})
	success, failure, _ := classify(context.Background(), &models.Message{}, nil)

	assert.Nil(success)
	var classErr *models.ClassificationError
	assert.ErrorAs(failure.GetError(), &classErr)
}

func TestClassifyFunction_ErrorCodes(t *testing.T) {
	testCases := []struct {
		Name string
		Err  error
		Code string
	}{
		{"aws error", errors.Wrap(awserr.New("ThrottlingException", "Rate exceeded", nil), "Failed to detect sentiment"), "ThrottlingException"},
		{"timeout", errors.Wrap(context.DeadlineExceeded, "Failed to detect sentiment"), codeTimeout},
		{"canceled", context.Canceled, codeCanceled},
		{"circuit open", gobreaker.ErrOpenState, codeCircuitOpen},
		{"half open", gobreaker.ErrTooManyRequests, codeCircuitOpen},
		{"other", errors.New("boom"), ""},
	}

	for _, tt := range testCases {
		t.Run(tt.Name, func(t *testing.T) {
			assert := assert.New(t)

			classify := NewClassifyFunction(&testutil.MockClassifier{Failures: map[string]error{"text": tt.Err}})
			success, failure, _ := classify(context.Background(), &models.Message{}, &sentimentState{Text: "text"})

			assert.Nil(success)
			assert.NotNil(failure)

			var classErr *models.ClassificationError
			assert.ErrorAs(failure.GetError(), &classErr)
			assert.Equal(tt.Code, classErr.ReportableCode())
			assert.Equal(models.ErrorTypeClassification, classErr.ReportableType())
		})
	}
}

func TestSentimentEnrich(t *testing.T) {
	assert := assert.New(t)

	success, failure, _ := SentimentEnrich(context.Background(), &models.Message{}, &sentimentState{Text: "great product", Classification: "POSITIVE"})
	assert.Nil(failure)

	payload, err := models.UnmarshalEnrichedPayload(success.Data)
	assert.Nil(err)
	assert.Equal("POSITIVE", payload.Classification)
	assert.Equal("great product", payload.Text)
	assert.Len(payload.ID, 36)
}

func TestSentimentEnrich_NoClassification(t *testing.T) {
	assert := assert.New(t)

	success, failure, _ := SentimentEnrich(context.Background(), &models.Message{}, &sentimentState{Text: "great product"})

	assert.Nil(success)
	var encodeErr *models.EncodeError
	assert.ErrorAs(failure.GetError(), &encodeErr)
}

func TestNewSentimentTransformation(t *testing.T) {
	assert := assert.New(t)

	classifier := &testutil.MockClassifier{
		Labels:   map[string]string{"great product": "POSITIVE", "awful": "NEGATIVE"},
		Failures: map[string]error{"throttled": awserr.New("ThrottlingException", "Rate exceeded", nil)},
	}
	transformation := NewSentimentTransformation(classifier, &SentimentTransformConfig{})

	event := testutil.GetFirehoseEvent(
		`{"data":"great product"}`,
		`{"data":"throttled"}`,
		`{"data":"awful"}`,
	)
	res := transformation(context.Background(), event.ToMessages())

	assert.Len(res.Records, 3)
	assert.Equal(int64(2), res.ResultCount)
	assert.Equal(int64(1), res.InvalidCount)
	assert.Equal(int64(1), res.CountByErrorType(models.ErrorTypeClassification))

	first, err := testutil.DecodeEnrichedPayload(string(res.Records[0].Data))
	assert.Nil(err)
	assert.Equal("POSITIVE", first.Classification)
	assert.Equal("great product", first.Text)

	assert.NotNil(res.Records[1].GetError())
	assert.Equal("2", res.Records[1].RecordID)

	third, err := testutil.DecodeEnrichedPayload(string(res.Records[2].Data))
	assert.Nil(err)
	assert.Equal("NEGATIVE", third.Classification)
}

func TestNewSentimentTransformation_DoesNotCallClassifierOnDecodeFailure(t *testing.T) {
	assert := assert.New(t)

	classifier := &testutil.MockClassifier{Default: "NEUTRAL"}
	transformation := NewSentimentTransformation(classifier, &SentimentTransformConfig{Concurrency: 2})

	messages := []*models.Message{
		{RecordID: "1", Data: []byte("%%%not-base64%%%")},
		{RecordID: "2", Data: []byte(base64.StdEncoding.EncodeToString([]byte("not json")))},
	}
	res := transformation(context.Background(), messages)

	assert.Equal(int64(2), res.InvalidCount)
	assert.Equal(int64(2), res.CountByErrorType(models.ErrorTypeDecode))
	assert.Equal(int64(0), classifier.Calls())
}
