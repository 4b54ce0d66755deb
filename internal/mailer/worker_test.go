package mailer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeDelivery struct {
	acked, nacked, requeued bool
}

func (d *fakeDelivery) Ack(bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_, requeue bool) error {
	d.nacked = true
	d.requeued = requeue
	return nil
}

type fakeSender struct {
	err  error
	sent []*mail.Msg
}

func (s *fakeSender) DialAndSend(messages ...*mail.Msg) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, messages...)
	return nil
}

func TestHandle(t *testing.T) {
	m, err := New("noreply@example.com", "Shift Board")
	require.NoError(t, err)

	valid := []byte(`{"type":"substitute_accepted","to":"alice@example.com","data":{"name":"Alice","substituteName":"Bob","date":"2024-06-01","startTime":"09:00","endTime":"13:00"}}`)

	t.Run("sent", func(t *testing.T) {
		d, s := &fakeDelivery{}, &fakeSender{}
		assert.Equal(t, Sent, m.Handle(valid, d, s))
		assert.True(t, d.acked)
		assert.Len(t, s.sent, 1)
	})

	t.Run("smtp failure requeues", func(t *testing.T) {
		d, s := &fakeDelivery{}, &fakeSender{err: errors.New("dial tcp: timeout")}
		assert.Equal(t, Requeued, m.Handle(valid, d, s))
		assert.True(t, d.nacked)
		assert.True(t, d.requeued)
		assert.False(t, d.acked)
	})

	t.Run("unknown type dropped", func(t *testing.T) {
		d, s := &fakeDelivery{}, &fakeSender{}
		assert.Equal(t, Dropped, m.Handle([]byte(`{"type":"change_email","to":"a@example.com"}`), d, s))
		assert.True(t, d.nacked)
		assert.False(t, d.requeued)
		assert.Empty(t, s.sent)
	})
}
