package produce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ImagePurgeQueue carries requests to erase a soft-deleted image's
	// objects from the pending-deletion prefix.
	ImagePurgeQueue      = "image.purge"
	ImagePurgeRoutingKey = "image.purge"
)

// ImagePurgeMessage identifies one soft-deleted image whose storage objects
// should be erased after the retention window.
type ImagePurgeMessage struct {
	ProductID string `json:"product_id"`
	ImageID   string `json:"image_id"`
	Timestamp int64  `json:"timestamp"`
}

type ImagePurgeService struct {
	channel *amqp.Channel
}

func InitImagePurgeService(channel *amqp.Channel) *ImagePurgeService {
	_, err := channel.QueueDeclare(
		ImagePurgeQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to declare image purge queue: %v", err))
	}

	return &ImagePurgeService{channel: channel}
}

func (s *ImagePurgeService) PublishImagePurge(ctx context.Context, productID, imageID string) error {
	msg := ImagePurgeMessage{
		ProductID: productID,
		ImageID:   imageID,
		Timestamp: time.Now().Unix(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal image purge message: %w", err)
	}

	err = s.channel.PublishWithContext(ctx,
		"", // default exchange
		ImagePurgeRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish image purge message: %w", err)
	}
	return nil
}
