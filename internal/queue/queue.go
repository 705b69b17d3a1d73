package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	AnalysisQueue = "analysis_updates"
	GraphExchange = "pubsub_exchange"
)

// Channel is the subset of *amqp091.Channel used for declaring and
// publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Init dials RabbitMQ, retrying while the broker starts up.
func Init(ctx context.Context) *amqp091.Connection {
	user := util.GetEnvString("RABBITMQ_USER", "guest")
	pass := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
	host := util.GetEnvString("RABBITMQ_HOST", "localhost")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := util.RetryWithBackoff(ctx, 5, time.Second, func(context.Context) (*amqp091.Connection, error) {
		return amqp091.Dial(connURL)
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares every queue together with its "_dlq" dead-letter
// queue and a "_retry" queue that routes messages back after 10s.
func SetupQueues(ch Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

func PublishFIFO(ch Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}

func PublishTopic(ch Channel, topic string, data []byte) error {
	err := ch.ExchangeDeclare(
		GraphExchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		GraphExchange,
		topic,
		false,
		false,
		publishing,
	)
}
