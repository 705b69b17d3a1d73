package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/logicflow/internal/queue"
	"github.com/OFFIS-RIT/logicflow/internal/storage"
	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/layout"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/logger/console"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxRetries = 10

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	force := layout.DefaultForceConfig()
	force.Steps = int(util.GetEnvNumeric("FORCE_STEPS", force.Steps))
	processor := &queue.Processor{
		Pipeline: pipeline.Options{Force: force},
	}

	// Init s3 client, only needed for messages without an inline document
	if bucket := util.GetEnv("AWS_BUCKET"); bucket != "" {
		client, err := storage.NewS3Client(ctx)
		if err != nil {
			logger.Fatal("Could not create S3 client", "err", err)
		}
		processor.S3 = client
		processor.Bucket = bucket
		processor.Prefix = util.GetEnvString("ANALYSIS_PREFIX", "analyses")
	}

	// Init rabbitmq
	conn := queue.Init(ctx)
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()
	processor.Channel = ch

	if err := queue.SetupQueues(ch, []string{queue.AnalysisQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// prefetch=1 keeps one build in flight at a time
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.AnalysisQueue,
		fmt.Sprintf("%s_consumer", queue.AnalysisQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnalysisQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.AnalysisQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.AnalysisQueue)
				return
			}
			startTime := time.Now()

			if err := processor.ProcessAnalysisUpdate(ctx, string(msg.Body)); err != nil {
				logger.Error("Error processing message", "queue", queue.AnalysisQueue, "err", err)
				handleProcessingError(consumerCh, msg, queue.AnalysisQueue)
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}
			logger.Info("Message processed successfully", "duration", time.Since(startTime).Round(time.Millisecond))
		}
	}
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
