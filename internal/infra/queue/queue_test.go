package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendAssignment(to, salesName, clientName, leadID string) error {
	args := m.Called(to, salesName, clientName, leadID)
	return args.Error(0)
}

type MockDeclarer struct {
	mock.Mock
}

func (m *MockDeclarer) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind).Error(0)
}

func (m *MockDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, args)
	return amqp.Queue{Name: name}, ret.Error(0)
}

func (m *MockDeclarer) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return m.Called(name, key, exchange).Error(0)
}

// fakeAcknowledger records how a delivery was settled.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func delivery(t *testing.T, ack *fakeAcknowledger, event interface{}) amqp.Delivery {
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

// TestSetupTopology - declares DLX first and binds the main queue with dead-letter args
func TestSetupTopology(t *testing.T) {
	ch := new(MockDeclarer)
	ch.On("ExchangeDeclare", DLXName, "direct").Return(nil).Once()
	ch.On("QueueDeclare", DLQName, amqp.Table(nil)).Return(nil).Once()
	ch.On("QueueBind", DLQName, RoutingKey, DLXName).Return(nil).Once()
	ch.On("ExchangeDeclare", ExchangeName, "direct").Return(nil).Once()
	ch.On("QueueDeclare", QueueName, amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}).Return(nil).Once()
	ch.On("QueueBind", QueueName, RoutingKey, ExchangeName).Return(nil).Once()

	require.NoError(t, setupTopology(ch))
	ch.AssertExpectations(t)
}

func TestSetupTopologyStopsOnError(t *testing.T) {
	ch := new(MockDeclarer)
	ch.On("ExchangeDeclare", DLXName, "direct").Return(errors.New("channel closed"))

	err := setupTopology(ch)
	assert.EqualError(t, err, "channel closed")
	ch.AssertNotCalled(t, "QueueDeclare", mock.Anything, mock.Anything)
}

// TestPublishLeadEvent - persistent JSON on the lead exchange
func TestPublishLeadEvent(t *testing.T) {
	pub := new(MockPublisher)
	producer := &RabbitMQProducer{Ch: pub}

	event := LeadEvent{
		Type:       EventLeadAssigned,
		LeadID:     "lead-1",
		ClientName: "ABC Corporation",
		Actor:      "Admin",
		Status:     "assigned",
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	pub.On("PublishWithContext", mock.Anything, ExchangeName, RoutingKey, false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got LeadEvent
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return msg.DeliveryMode == amqp.Persistent &&
				msg.ContentType == "application/json" &&
				msg.Type == EventLeadAssigned &&
				got.LeadID == "lead-1"
		}),
	).Return(nil)

	require.NoError(t, producer.PublishLeadEvent(context.Background(), event))
	pub.AssertExpectations(t)
}

func TestPublishLeadEventWrapsError(t *testing.T) {
	pub := new(MockPublisher)
	producer := &RabbitMQProducer{Ch: pub}
	boom := errors.New("connection reset")

	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)

	err := producer.PublishLeadEvent(context.Background(), LeadEvent{Type: EventLeadCreated})
	assert.ErrorIs(t, err, boom)
}

// TestWorkerAssignedSendsNotification - lead.assigned mails the assignee and acks
func TestWorkerAssignedSendsNotification(t *testing.T) {
	notifier := new(MockNotifier)
	w := &Worker{Notifier: notifier, Log: quietLogger()}
	ack := &fakeAcknowledger{}

	notifier.On("SendAssignment", "sam@example.com", "Sam", "ABC Corporation", "lead-1").Return(nil)

	w.handle(context.Background(), delivery(t, ack, LeadEvent{
		Type:          EventLeadAssigned,
		LeadID:        "lead-1",
		ClientName:    "ABC Corporation",
		AssigneeName:  "Sam",
		AssigneeEmail: "sam@example.com",
	}))

	notifier.AssertExpectations(t)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestWorkerNotificationFailureDeadLetters(t *testing.T) {
	notifier := new(MockNotifier)
	w := &Worker{Notifier: notifier, Log: quietLogger()}
	ack := &fakeAcknowledger{}

	notifier.On("SendAssignment", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	w.handle(context.Background(), delivery(t, ack, LeadEvent{
		Type:          EventLeadAssigned,
		LeadID:        "lead-1",
		AssigneeEmail: "sam@example.com",
	}))

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestWorkerAcksAuditEvents(t *testing.T) {
	notifier := new(MockNotifier)
	w := &Worker{Notifier: notifier, Log: quietLogger()}
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), delivery(t, ack, LeadEvent{Type: EventLeadCalled, LeadID: "lead-1"}))

	assert.True(t, ack.acked)
	notifier.AssertNotCalled(t, "SendAssignment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkerRejectsMalformedBody(t *testing.T) {
	w := &Worker{Notifier: new(MockNotifier), Log: quietLogger()}
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}
