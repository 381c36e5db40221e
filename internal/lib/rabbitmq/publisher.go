// Package rabbitmq содержит подключение к RabbitMQ, объявление обменника
// и очередей уведомлений и публикацию сообщений о вехах истечения.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// Channel описывает публикацию в канал AMQP; подменяется в тестах.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// milestoneMessage — полезная нагрузка сообщения о вехе для воркера рассылки.
type milestoneMessage struct {
	Username string `json:"username"`
	models.MilestoneEvent
}

// Dispatcher публикует вехи истечения в обменник уведомлений.
// Реализует интерфейс доставки трекера вех.
type Dispatcher struct {
	ch Channel
}

// NewDispatcher создаёт Dispatcher поверх канала AMQP.
func NewDispatcher(ch Channel) *Dispatcher {
	return &Dispatcher{ch: ch}
}

// Dispatch публикует веху с ключом маршрутизации "milestones".
func (d *Dispatcher) Dispatch(_ context.Context, username string, evt models.MilestoneEvent) error {
	return PublishMessage(d.ch, NotificationsExchange, MilestonesRoutingKey, milestoneMessage{
		Username:       username,
		MilestoneEvent: evt,
	})
}
