package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAcknowledger records what happened to a delivery.
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
	return f.Nack(tag, false, requeue)
}

func delivery(t *testing.T, ack *fakeAcknowledger, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func TestHandleDelivery(t *testing.T) {
	c := &Client{log: zap.NewNop()}
	event := CommitEvent{CommitID: "c1", UserID: "u1", HomeID: "h1", RenterID: "r1", CreatedAt: time.Now().UTC()}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("acks on success", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		var got CommitEvent
		c.handleDelivery(delivery(t, ack, body), func(e CommitEvent) error {
			got = e
			return nil
		})
		assert.True(t, ack.acked)
		assert.Equal(t, "c1", got.CommitID)
	})

	t.Run("requeues on handler error", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		c.handleDelivery(delivery(t, ack, body), func(CommitEvent) error { return errors.New("boom") })
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("drops malformed body", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		called := false
		c.handleDelivery(delivery(t, ack, []byte("{")), func(CommitEvent) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})
}

func TestPublishWithoutChannel(t *testing.T) {
	c := &Client{log: zap.NewNop()}
	assert.Error(t, c.Publish([]byte("{}")))
}
