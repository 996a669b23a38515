// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package transform

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

// TransformationFunction takes a message and intermediateState, and returns either a transformed message or an errored message, along with an intermediateState.
// Exactly one of the two returned messages is non-nil.
type TransformationFunction func(context.Context, *models.Message, interface{}) (*models.Message, *models.Message, interface{})

// TransformationApplyFunction dereferences messages before running transformations, and returns a TransformationResult
type TransformationApplyFunction func(context.Context, []*models.Message) *models.TransformationResult

// NewTransformation constructs a function which applies all transformations to all messages, returning a TransformationResult.
//
// Every message is transformed in its own goroutine and the function returns once all of them
// are done. A concurrency above zero caps how many run at once. Results are stored by position,
// so TransformationResult.Records lines up with the input slice.
func NewTransformation(concurrency int, tranformFunctions ...TransformationFunction) TransformationApplyFunction {
	return func(ctx context.Context, messages []*models.Message) *models.TransformationResult {
		records := make([]*models.Message, len(messages))

		// If no transformations, just return the result rather than spawning goroutines
		if len(tranformFunctions) == 0 {
			copy(records, messages)
			return models.NewTransformationResult(records)
		}

		// A plain Group: a failing record must never cancel its siblings
		var g errgroup.Group
		if concurrency > 0 {
			g.SetLimit(concurrency)
		}

		for idx, message := range messages {
			idx, message := idx, message
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						records[idx] = recoveredMessage(message, r)
					}
				}()
				records[idx] = applyTransformations(ctx, message, tranformFunctions)
				return nil
			})
		}
		g.Wait()

		return models.NewTransformationResult(records)
	}
}

func applyTransformations(ctx context.Context, message *models.Message, tranformFunctions []TransformationFunction) *models.Message {
	msg := *message // dereference to avoid amending input
	success := &msg
	var failure *models.Message
	var intermediate interface{}

	for _, transformFunction := range tranformFunctions {
		success, failure, intermediate = transformFunction(ctx, success, intermediate)
		if failure != nil {
			return failure
		}
	}

	success.TimeTransformed = time.Now().UTC()
	return success
}

// recoveredMessage fails a record whose transformation panicked, leaving its siblings untouched
func recoveredMessage(message *models.Message, r interface{}) *models.Message {
	msg := *message
	msg.SetError(&models.ClassificationError{
		SafeMessage: "record transformation panicked",
		Err:         fmt.Errorf("panic during transformation: %v", r),
	})
	return &msg
}
