package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/dahlia/pkg/metrics"
)

// ProducerConfig configures the Kafka producer
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	MaxAttempts  int
	RequiredAcks int
	Compression  string
}

// Producer publishes messages to Kafka
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	config ProducerConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger ectologger.Logger) (*Producer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	compression := kafka.Snappy
	switch config.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{}, // Hash by key for partition affinity
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.BatchTimeout,
		MaxAttempts:            config.MaxAttempts,
		WriteTimeout:           config.WriteTimeout,
		Compression:            compression,
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		config: config,
	}, nil
}

// Publish publishes a message to the configured topic. Key determines the
// partition, so events for one collaboration stay ordered.
func (p *Producer) Publish(ctx context.Context, key string, headers map[string]string, value []byte) error {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{
		Topic:   p.config.Topic,
		Key:     []byte(key),
		Value:   value,
		Headers: kafkaHeaders,
		Time:    time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordKafkaPublish(p.config.Topic, "error")
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RecordKafkaPublish(p.config.Topic, "success")
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}

// Stats returns producer statistics
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}
