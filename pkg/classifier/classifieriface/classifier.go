// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package classifieriface

import "context"

// Classifier describes the interface for a service which returns exactly one
// categorical label for a piece of text. Implementations must be safe for
// concurrent use by many records at once.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
	GetID() string
}
