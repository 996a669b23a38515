// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package transform

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/snowplow-devops/stream-sentiment/pkg/classifier/classifieriface"
	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

const (
	// DefaultTextField is the payload field classified when none is configured
	DefaultTextField = "data"

	codeCircuitOpen = "CircuitOpen"
	codeTimeout     = "Timeout"
	codeCanceled    = "Canceled"
)

// SentimentTransformConfig configures the sentiment enrichment chain
type SentimentTransformConfig struct {
	TextField   string `hcl:"text_field,optional" env:"TRANSFORM_TEXT_FIELD"`
	Concurrency int    `hcl:"concurrency,optional" env:"TRANSFORM_CONCURRENCY"`
}

// sentimentState is the intermediate state handed from one function of the chain to the next
type sentimentState struct {
	Text           string
	Classification string
}

// NewSentimentTransformation builds the full decode -> classify -> enrich -> encode chain
func NewSentimentTransformation(c classifieriface.Classifier, cfg *SentimentTransformConfig) TransformationApplyFunction {
	textField := cfg.TextField
	if textField == "" {
		textField = DefaultTextField
	}

	return NewTransformation(
		cfg.Concurrency,
		Base64Decode,
		NewJSONTextExtractFunction(textField),
		NewClassifyFunction(c),
		SentimentEnrich,
		Base64Encode,
	)
}

// NewJSONTextExtractFunction returns a TransformationFunction which parses the message data as
// a JSON object and extracts the string found under field. Anything else, invalid UTF-8 included,
// is a DecodeError.
func NewJSONTextExtractFunction(field string) TransformationFunction {
	return func(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
		if !utf8.Valid(message.Data) {
			message.SetError(&models.DecodeError{
				SafeMessage: "data is not valid UTF-8",
				Err:         errors.New("payload contains invalid UTF-8 sequences"),
			})
			return nil, message, nil
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			message.SetError(&models.DecodeError{
				SafeMessage: "failed to parse data as a JSON object",
				Err:         err,
			})
			return nil, message, nil
		}
		if payload == nil {
			message.SetError(&models.DecodeError{
				SafeMessage: "failed to parse data as a JSON object",
				Err:         errors.New("payload is JSON null"),
			})
			return nil, message, nil
		}

		raw, ok := payload[field]
		if !ok {
			message.SetError(&models.DecodeError{
				SafeMessage: fmt.Sprintf("field %q not found in payload", field),
				Err:         fmt.Errorf("field %q not found in payload", field),
			})
			return nil, message, nil
		}

		text, ok := raw.(string)
		if !ok {
			message.SetError(&models.DecodeError{
				SafeMessage: fmt.Sprintf("field %q is not a string", field),
				Err:         fmt.Errorf("field %q is not a string, got %T", field, raw),
			})
			return nil, message, nil
		}
		if text == "" {
			message.SetError(&models.DecodeError{
				SafeMessage: fmt.Sprintf("field %q is empty", field),
				Err:         fmt.Errorf("field %q is empty", field),
			})
			return nil, message, nil
		}

		return message, nil, &sentimentState{Text: text}
	}
}

// NewClassifyFunction returns a TransformationFunction which asks the classifier for the label of
// the extracted text. Any failure of the call becomes a ClassificationError on that message only.
func NewClassifyFunction(c classifieriface.Classifier) TransformationFunction {
	return func(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
		state, ok := intermediateState.(*sentimentState)
		if !ok {
			message.SetError(&models.ClassificationError{
				SafeMessage: "no text extracted before classification",
				Err:         errors.New("intermediate state is not a sentiment state"),
			})
			return nil, message, nil
		}

		label, err := c.Classify(ctx, state.Text)
		if err != nil {
			message.SetError(newClassificationError(err))
			return nil, message, nil
		}

		state.Classification = label
		return message, nil, state
	}
}

// SentimentEnrich replaces the message data with the JSON EnrichedPayload built from the intermediate state
func SentimentEnrich(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
	state, ok := intermediateState.(*sentimentState)
	if !ok || state.Classification == "" {
		message.SetError(&models.EncodeError{
			SafeMessage: "no classification to enrich the payload with",
			Err:         errors.New("intermediate state carries no classification"),
		})
		return nil, message, nil
	}

	data, err := models.NewEnrichedPayload(state.Classification, state.Text).Marshal()
	if err != nil {
		message.SetError(&models.EncodeError{
			SafeMessage: "failed to serialise enriched payload",
			Err:         err,
		})
		return nil, message, nil
	}

	message.Data = data
	return message, nil, state
}

func newClassificationError(err error) *models.ClassificationError {
	cerr := &models.ClassificationError{
		SafeMessage: "classification request failed",
		Err:         err,
	}

	var awsErr awserr.Error
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		cerr.Code = codeCircuitOpen
		cerr.SafeMessage = "classification skipped, circuit breaker is open"
	case errors.Is(err, context.DeadlineExceeded):
		cerr.Code = codeTimeout
		cerr.SafeMessage = "classification request timed out"
	case errors.Is(err, context.Canceled):
		cerr.Code = codeCanceled
		cerr.SafeMessage = "classification request was canceled"
	case errors.As(err, &awsErr):
		cerr.Code = awsErr.Code()
		cerr.SafeMessage = awsErr.Message()
	}

	return cerr
}
