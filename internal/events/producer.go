package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"match-go/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer defines the interface for publishing relationship events.
type Producer interface {
	Publish(ctx context.Context, event *RelationshipEvent) error
	Close()
}

// kafkaProducer is an implementation of Producer using confluent-kafka-go.
type kafkaProducer struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaProducer creates a new relationship-event producer.
func NewKafkaProducer(cfg config.KafkaConfig) (Producer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"security.protocol": cfg.Protocol,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &kafkaProducer{producer: p, topic: cfg.EventsTopic}, nil
}

// Publish sends a single event to the events topic, keyed by recipient so a
// user's notifications stay ordered within a partition. It waits for the
// delivery report synchronously.
func (p *kafkaProducer) Publish(ctx context.Context, event *RelationshipEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化关系事件失败: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	kafkaMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.FormatUint(uint64(event.RecipientID), 10)),
		Value:          payload,
		Timestamp:      time.Now(),
	}

	if err := p.producer.Produce(kafkaMsg, deliveryChan); err != nil {
		return fmt.Errorf("kafka producer failed to enqueue event %s: %w", event.Type, err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("kafka producer: unexpected event type received on delivery channel: %T %v", e, e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka producer: delivery failed for event %s: %w", event.Type, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka producer: context canceled while waiting for delivery report: %w", ctx.Err())
	}
}

// Close flushes any outstanding events and closes the producer.
func (p *kafkaProducer) Close() {
	if p.producer != nil {
		log.Println("Closing Kafka producer...")
		remaining := p.producer.Flush(15 * 1000) // 15 second timeout
		if remaining > 0 {
			log.Printf("Warning: %d events still outstanding after flush, producer closing.", remaining)
		}
		p.producer.Close()
		log.Println("Kafka producer closed.")
	}
}
