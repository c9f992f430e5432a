package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a decoded schedule job still owned by its AMQP delivery
type Message struct {
	Job      *Job
	delivery amqp.Delivery
}

func newMessage(job *Job, delivery amqp.Delivery) *Message {
	return &Message{Job: job, delivery: delivery}
}

// GetJob returns the decoded job
func (m *Message) GetJob() *Job {
	return m.Job
}

// Ack settles the delivery
func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack rejects the delivery; without requeue the broker dead-letters it
func (m *Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}
