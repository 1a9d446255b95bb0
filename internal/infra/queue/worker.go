package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Notifier delivers the assignment notice to the sales rep.
type Notifier interface {
	SendAssignment(to, salesName, clientName, leadID string) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier Notifier
	Log      *logrus.Logger
}

func NewWorker(ch *amqp.Channel, notifier Notifier, log *logrus.Logger) *Worker {
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		Log:      log,
	}
}

// Start consumes queueName until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Log.WithField("queue", queueName).Info("lead event worker started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.Log.WithError(err).Warn("discarding malformed lead event")
		// dead-lettered
		_ = d.Nack(false, false)
		return
	}

	entry := w.Log.WithFields(logrus.Fields{
		"event":   event.Type,
		"lead_id": event.LeadID,
	})

	if err := w.process(ctx, event); err != nil {
		entry.WithError(err).Error("lead event failed")
		_ = d.Nack(false, false)
		return
	}

	entry.Debug("lead event processed")
	_ = d.Ack(false)
}

func (w *Worker) process(_ context.Context, event LeadEvent) error {
	switch event.Type {
	case EventLeadAssigned:
		if event.AssigneeEmail == "" {
			w.Log.WithField("lead_id", event.LeadID).Warn("assignee has no email, skipping notification")
			return nil
		}
		return w.Notifier.SendAssignment(event.AssigneeEmail, event.AssigneeName, event.ClientName, event.LeadID)
	default:
		// audit-only events
		w.Log.WithFields(logrus.Fields{
			"event":   event.Type,
			"lead_id": event.LeadID,
			"actor":   event.Actor,
			"status":  event.Status,
		}).Info("lead event")
		return nil
	}
}
