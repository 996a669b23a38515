// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

// ErrorMetadata is implemented by every per-record error so that it can be
// logged and counted without leaking the record payload.
type ErrorMetadata interface {
	ReportableCode() string
	ReportableDescription() string
	ReportableType() string
}

const (
	ErrorTypeDecode         = "decode"
	ErrorTypeClassification = "classification"
	ErrorTypeEncode         = "encode"
)

// DecodeError means the record data is not base64 encoded JSON carrying
// the text field we classify
type DecodeError struct {
	SafeMessage string
	Err         error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) ReportableCode() string {
	return ""
}

func (e *DecodeError) ReportableDescription() string {
	return e.SafeMessage
}

func (e *DecodeError) ReportableType() string {
	return ErrorTypeDecode
}

// ClassificationError wraps any failure of the external classification call:
// transport errors, throttling, timeouts, an open circuit or a label outside
// the known set.
type ClassificationError struct {
	Code        string
	SafeMessage string
	Err         error
}

func (e *ClassificationError) Error() string {
	return e.Err.Error()
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func (e *ClassificationError) ReportableCode() string {
	return e.Code
}

func (e *ClassificationError) ReportableDescription() string {
	return e.SafeMessage
}

func (e *ClassificationError) ReportableType() string {
	return ErrorTypeClassification
}

// EncodeError means the enriched payload could not be serialised
type EncodeError struct {
	SafeMessage string
	Err         error
}

func (e *EncodeError) Error() string {
	return e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func (e *EncodeError) ReportableCode() string {
	return ""
}

func (e *EncodeError) ReportableDescription() string {
	return e.SafeMessage
}

func (e *EncodeError) ReportableType() string {
	return ErrorTypeEncode
}
