package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	ImagePurgeService *ImagePurgeService
}

func InitProduce(channel *amqp.Channel) *Produce {
	imagePurgeService := InitImagePurgeService(channel)
	if imagePurgeService == nil {
		panic("Failed to initialize Image purge service")
	}

	return &Produce{
		ImagePurgeService: imagePurgeService,
	}
}
