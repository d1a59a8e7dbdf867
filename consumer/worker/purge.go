package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hldang/stockpile/config"
	"github.com/hldang/stockpile/infra"
	"github.com/hldang/stockpile/infra/produce"
	"github.com/hldang/stockpile/storage"
)

// PurgeConsumer erases the storage objects of soft-deleted images. The bulk
// save flow only moves objects under the pending-deletion prefix; this worker
// performs the actual removal.
type PurgeConsumer struct {
	channel *amqp.Channel
	infra   *infra.Infra
	bucket  string
}

func NewPurgeConsumer(channel *amqp.Channel, infra *infra.Infra, cfg *config.Config) *PurgeConsumer {
	return &PurgeConsumer{
		channel: channel,
		infra:   infra,
		bucket:  cfg.EnvConfig.Storage.Bucket,
	}
}

func (c *PurgeConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.ImagePurgeQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register image purge consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Purge Consumer] Started listening for purge jobs on queue: %s", produce.ImagePurgeQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Purge Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Purge Consumer] Channel closed")
					return
				}
				c.handlePurge(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *PurgeConsumer) handlePurge(ctx context.Context, msg amqp.Delivery) {
	var payload produce.ImagePurgeMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Purge Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Purge Consumer] Invalid product ID: %v", err)
		_ = msg.Nack(false, false)
		return
	}
	imageID, err := uuid.Parse(payload.ImageID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Purge Consumer] Invalid image ID: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.executePurge(ctx, productID, imageID)
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Purge Consumer] Purged objects for image %s of product %s", imageID, productID)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Purge Consumer] Attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Purge Consumer] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

// executePurge lists everything still sitting under the image's
// pending-deletion prefix and removes it. A prefix with no objects means the
// purge already ran; that is not an error.
func (c *PurgeConsumer) executePurge(ctx context.Context, productID, imageID uuid.UUID) error {
	prefix := fmt.Sprintf("%s/products/%s/images/%s", storage.VisibilityPendingDeletion, productID, imageID)

	objects, err := c.infra.Storage.ListObjects(ctx, c.bucket, prefix)
	if err != nil {
		return fmt.Errorf("failed to list pending objects: %w", err)
	}
	if len(objects) == 0 {
		return nil
	}

	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		keys = append(keys, object.Key)
	}

	if err := c.infra.Storage.RemoveObjects(ctx, c.bucket, keys); err != nil {
		return fmt.Errorf("failed to remove pending objects: %w", err)
	}
	return nil
}
