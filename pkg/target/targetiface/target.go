// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package targetiface

import (
	"context"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

// Target describes the interface for how to push produced records downstream
type Target interface {
	Write(ctx context.Context, messages []*models.Message) (*models.TargetWriteResult, error)
	Open()
	Close()
	MaximumAllowedMessageSizeBytes() int
	GetID() string
}
