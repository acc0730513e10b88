package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Ramsey-B/iris/config"
	utils "github.com/Ramsey-B/iris/pkg/context"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// MessageHandler processes a parsed analyzed request
type MessageHandler func(ctx context.Context, msg *IncomingMessage) error

// reader is the part of kafka.Reader the consumer uses
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// fetch and handler errors back off from retryMin, doubling up to retryMax
const (
	retryMin = 200 * time.Millisecond
	retryMax = 10 * time.Second
)

// Consumer reads analyzed requests and hands them to the handler one at a time
type Consumer struct {
	reader  reader
	topic   string
	logger  ectologger.Logger
	handler MessageHandler
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running atomic.Bool
	failing atomic.Bool
	// backoff overrides retryMin when set
	backoff time.Duration
}

type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// NewConsumer creates a consumer on the configured input topic
func NewConsumer(cfg *config.Config, logger ectologger.Logger, handler MessageHandler) *Consumer {
	return NewConsumerWithConfig(ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaInputTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
	}, logger, handler)
}

// NewConsumerWithConfig creates a consumer with explicit config
func NewConsumerWithConfig(cfg ConsumerConfig, logger ectologger.Logger, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  r,
		topic:   cfg.Topic,
		logger:  logger,
		handler: handler,
	}
}

// Start launches the fetch loop and returns immediately
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.running.Store(true)
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": c.topic,
	}).Info("Consuming analyzed requests")
	return nil
}

// Stop cancels the fetch loop, waits for the in-flight message and closes the reader
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	defer c.running.Store(false)

	backoff := c.firstBackoff()
	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.failing.Store(true)
			c.logger.WithContext(ctx).WithError(err).WithField("retry_in", backoff.String()).Error("Failed to fetch analyzed request")
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, retryMax)
			continue
		}

		c.failing.Store(false)
		backoff = c.firstBackoff()
		c.processMessage(ctx, msg)
	}
	c.logger.WithContext(ctx).WithField("topic", c.topic).Info("Consumer loop stopped")
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))

	ctx, span := tracing.StartSpan(ctx, "kafka.Consumer.processMessage")
	defer span.End()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	incoming := &IncomingMessage{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   headers,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Topic:     msg.Topic,
	}

	if err := incoming.ParseAnalyzedRequest(); err != nil {
		// unparseable input never succeeds on retry, so it is committed and skipped
		log.WithError(err).Error("Failed to parse message")
		metrics.RecordKafkaConsume(msg.Topic, "invalid")
		c.commit(ctx, log, msg)
		return
	}

	ctx = utils.WithRequest(ctx, utils.Request{
		ID:     incoming.Request.RequestID,
		Source: utils.SourceKafka,
		UserID: incoming.Request.AuthorID,
		Route:  msg.Topic,
	})
	tracing.SetAttributes(ctx, attribute.String("iris.request_id", incoming.Request.RequestID))

	if !c.handle(ctx, log, incoming) {
		log.Warn("Stopped before the message was processed (not committing)")
		return
	}

	metrics.RecordKafkaConsume(msg.Topic, "success")
	c.commit(ctx, log, msg)
}

// handle runs the handler until it succeeds or ctx ends. The reader commits offsets
// cumulatively, so a failed message is retried in place rather than skipped.
func (c *Consumer) handle(ctx context.Context, log ectologger.Logger, incoming *IncomingMessage) bool {
	backoff := c.firstBackoff()
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, incoming)
		if err == nil {
			c.failing.Store(false)
			return true
		}

		c.failing.Store(true)
		tracing.RecordError(ctx, err)
		metrics.RecordKafkaConsume(incoming.Topic, "error")
		log.WithError(err).WithFields(map[string]any{
			"attempt":  attempt,
			"retry_in": backoff.String(),
		}).Error("Failed to process message")

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, retryMax)
	}
}

func (c *Consumer) firstBackoff() time.Duration {
	if c.backoff > 0 {
		return c.backoff
	}
	return retryMin
}

func (c *Consumer) commit(ctx context.Context, log ectologger.Logger, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to commit message")
	}
}

// Health is false once the loop has exited or while fetches or the handler keep failing
func (c *Consumer) Health() bool {
	return c.running.Load() && !c.failing.Load()
}
