package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"match-go/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Handler is a function type for processing consumed relationship events.
// Returning an error leaves the offset uncommitted so the event is retried.
type Handler func(ctx context.Context, event *RelationshipEvent) error

// Consumer defines the interface for consuming relationship events.
type Consumer interface {
	// Consume blocks until the context is canceled or a fatal error occurs.
	Consume(ctx context.Context, handler Handler) error
	Close()
}

// kafkaConsumer is an implementation of Consumer using confluent-kafka-go.
type kafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
}

// NewKafkaConsumer creates a new relationship-event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig) (Consumer, error) {
	return &kafkaConsumer{cfg: cfg}, nil
}

// Consume polls the events topic and dispatches decoded events to handler,
// committing offsets manually after successful handling.
func (c *kafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.cfg.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false", // commit manually after processing
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", c.cfg.ConsumerGroup, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics([]string{c.cfg.EventsTopic}, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.EventsTopic, err)
	}

	log.Printf("Kafka consumer started for GroupID: %s, subscribed to topic: %s", c.cfg.ConsumerGroup, c.cfg.EventsTopic)

	run := true
	for run {
		select {
		case <-ctx.Done():
			log.Printf("Context canceled for consumer group %s. Shutting down.", c.cfg.ConsumerGroup)
			run = false
		default:
			ev := c.consumer.Poll(1000)
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				var event RelationshipEvent
				if err := json.Unmarshal(e.Value, &event); err != nil {
					// Bad payload will never decode; commit and move on.
					log.Printf("Error unmarshalling relationship event (offset %v): %v, value: %s",
						e.TopicPartition.Offset, err, string(e.Value))
					if _, err := c.consumer.CommitMessage(e); err != nil {
						log.Printf("Failed to commit offset for bad payload: %v", err)
					}
					continue
				}
				if err := handler(ctx, &event); err != nil {
					log.Printf("Error processing relationship event %s (offset %v): %v",
						event.Type, e.TopicPartition.Offset, err)
				} else {
					if _, err := c.consumer.CommitMessage(e); err != nil {
						log.Printf("Failed to commit offset (topic %s, offset %v): %v",
							*e.TopicPartition.Topic, e.TopicPartition.Offset, err)
					}
				}
			case kafka.Error:
				log.Printf("Kafka consumer error for group %s: %v (Fatal: %t)", c.cfg.ConsumerGroup, e, e.IsFatal())
				if e.IsFatal() {
					return e
				}
			case kafka.AssignedPartitions:
				log.Printf("Partitions assigned for group %s: %v", c.cfg.ConsumerGroup, e.Partitions)
				c.consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				log.Printf("Partitions revoked for group %s: %v", c.cfg.ConsumerGroup, e.Partitions)
				c.consumer.Unassign()
			}
		}
	}
	log.Printf("Kafka consumer loop for group %s finished.", c.cfg.ConsumerGroup)
	return nil
}

// Close closes the Kafka consumer.
func (c *kafkaConsumer) Close() {
	if c.consumer != nil {
		if err := c.consumer.Close(); err != nil {
			log.Printf("Error closing Kafka consumer: %v", err)
		}
		c.consumer = nil
	}
}
