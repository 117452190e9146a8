// Package events publishes item lifecycle events to a RabbitMQ topic
// exchange so downstream consumers (notifications, analytics) can react
// without polling the catalog. The publisher is optional; a nil *Publisher is
// a no-op.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Routing keys.
const (
	KeyItemReported = "item.reported"
	KeyItemClaimed  = "item.claimed"
	KeyMatchFound   = "match.found"
)

// ItemEvent is the payload for item.reported and item.claimed.
type ItemEvent struct {
	ItemID    string    `json:"itemId"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Location  string    `json:"location"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MatchEvent is the payload for match.found.
type MatchEvent struct {
	ItemID     string    `json:"itemId"`
	MatchedIDs []string  `json:"matchedIds"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes catalog events to a durable topic exchange.
type Publisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	url          string
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(url, exchangeName string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		url:          url,
	}

	go p.handleReconnect()

	log.Info().Str("exchange", exchangeName).Msg("Event publisher initialized")
	return p, nil
}

// ItemReported publishes an item.reported event.
func (p *Publisher) ItemReported(ctx context.Context, event ItemEvent) error {
	return p.publish(ctx, KeyItemReported, event)
}

// ItemClaimed publishes an item.claimed event.
func (p *Publisher) ItemClaimed(ctx context.Context, event ItemEvent) error {
	return p.publish(ctx, KeyItemClaimed, event)
}

// MatchFound publishes a match.found event.
func (p *Publisher) MatchFound(ctx context.Context, event MatchEvent) error {
	return p.publish(ctx, KeyMatchFound, event)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Debug().
		Str("routing_key", routingKey).
		Str("exchange", p.exchangeName).
		Msg("Event published")
	return nil
}

// handleReconnect re-establishes the connection and channel after a broker
// disconnect.
func (p *Publisher) handleReconnect() {
	closeChan := make(chan *amqp.Error)
	p.conn.NotifyClose(closeChan)

	for closeErr := range closeChan {
		if closeErr == nil {
			continue
		}
		log.Error().Err(closeErr).Msg("RabbitMQ connection closed, attempting to reconnect...")

		for {
			time.Sleep(5 * time.Second)

			conn, err := amqp.Dial(p.url)
			if err != nil {
				log.Error().Err(err).Msg("Failed to reconnect to RabbitMQ")
				continue
			}

			channel, err := conn.Channel()
			if err != nil {
				conn.Close()
				log.Error().Err(err).Msg("Failed to open channel")
				continue
			}

			err = channel.ExchangeDeclare(p.exchangeName, "topic", true, false, false, false, nil)
			if err != nil {
				channel.Close()
				conn.Close()
				log.Error().Err(err).Msg("Failed to declare exchange")
				continue
			}

			p.conn = conn
			p.channel = channel

			log.Info().Msg("Reconnected to RabbitMQ")

			closeChan = make(chan *amqp.Error)
			p.conn.NotifyClose(closeChan)
			break
		}
	}
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ connection")
			return err
		}
	}
	return nil
}

// HealthCheck verifies the broker connection.
func (p *Publisher) HealthCheck() error {
	if p == nil {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ connection is closed")
	}
	if p.channel == nil {
		return fmt.Errorf("RabbitMQ channel is nil")
	}
	return nil
}
