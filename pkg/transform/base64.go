// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package transform

import (
	"context"
	"encoding/base64"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

// Base64Decode decodes the wire encoding of a record. The intermediate state is passed through untouched.
func Base64Decode(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
	b64DecodedData := make([]byte, base64.StdEncoding.DecodedLen(len(message.Data)))
	nWrittenBytes, err := base64.StdEncoding.Decode(b64DecodedData, message.Data)
	if err != nil {
		message.SetError(&models.DecodeError{
			SafeMessage: "failed to decode data as base64",
			Err:         err,
		})
		return nil, message, nil
	}

	message.Data = b64DecodedData[:nWrittenBytes]
	return message, nil, intermediateState
}

// Base64Encode applies the wire encoding to a record. The intermediate state is passed through untouched.
func Base64Encode(ctx context.Context, message *models.Message, intermediateState interface{}) (*models.Message, *models.Message, interface{}) {
	b64EncodedData := make([]byte, base64.StdEncoding.EncodedLen(len(message.Data)))
	base64.StdEncoding.Encode(b64EncodedData, message.Data)
	// Encode doesn't return anything

	message.Data = b64EncodedData
	return message, nil, intermediateState
}
