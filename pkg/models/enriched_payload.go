// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EnrichedPayload is the document delivered downstream for every record
// that was classified successfully. The field names on the wire are the
// ones the delivery bucket consumers already read.
type EnrichedPayload struct {
	ID             string `json:"id"`
	Classification string `json:"sentiment"`
	Text           string `json:"data"`
}

// NewEnrichedPayload mints a new random identifier for the payload. It has no
// relationship to the record id of the input.
func NewEnrichedPayload(classification string, text string) *EnrichedPayload {
	return &EnrichedPayload{
		ID:             uuid.NewString(),
		Classification: classification,
		Text:           text,
	}
}

// Marshal serialises the payload to JSON
func (p *EnrichedPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalEnrichedPayload parses a JSON document into an EnrichedPayload
func UnmarshalEnrichedPayload(data []byte) (*EnrichedPayload, error) {
	var p EnrichedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
