// Package events delivers lifecycle notifications to RabbitMQ. Delivery is
// fire-and-forget: producers never wait on the broker and undeliverable events
// are dropped with a warning.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// TypeTrialExpired identifies trial expiry events on the wire.
const TypeTrialExpired = "trial.expired"

// TrialExpired is emitted after a user leaves trial.
type TrialExpired struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	FromClass string    `json:"from_class"`
	ToClass   string    `json:"to_class"`
	ExpiredAt time.Time `json:"expired_at"`
}

// DropCounter observes dropped events. metrics.Engine satisfies it.
type DropCounter interface {
	EventDropped()
}

type sender interface {
	send(ctx context.Context, body []byte) error
	close() error
}

// Publisher buffers events and ships them from a single goroutine started by Run.
type Publisher struct {
	queue   string
	logger  zerolog.Logger
	buf     chan TrialExpired
	drops   DropCounter
	connect func(ctx context.Context) (sender, error)
	conn    sender
}

// NewPublisher prepares a publisher for the given broker URL and queue. It
// returns nil when url is empty; a nil *Publisher accepts and discards events.
func NewPublisher(url, queue string, buffer int, logger zerolog.Logger, drops DropCounter) *Publisher {
	if url == "" {
		return nil
	}
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		queue:  queue,
		logger: logger,
		buf:    make(chan TrialExpired, buffer),
		drops:  drops,
	}
	p.connect = func(ctx context.Context) (sender, error) {
		return dialAMQP(url, queue)
	}
	return p
}

// TrialExpired enqueues evt without blocking.
func (p *Publisher) TrialExpired(evt TrialExpired) {
	if p == nil {
		return
	}
	if evt.Type == "" {
		evt.Type = TypeTrialExpired
	}
	select {
	case p.buf <- evt:
	default:
		p.drop(evt, fmt.Errorf("buffer full"))
	}
}

// Run delivers buffered events until ctx is done, then makes one bounded
// attempt to flush whatever is still queued.
func (p *Publisher) Run(ctx context.Context) error {
	if p == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	defer func() {
		if p.conn != nil {
			_ = p.conn.close()
			p.conn = nil
		}
	}()
	for {
		select {
		case <-ctx.Done():
			p.flush(flushTimeout)
			return ctx.Err()
		case evt := <-p.buf:
			p.deliver(ctx, evt)
		}
	}
}

const flushTimeout = 5 * time.Second

func (p *Publisher) flush(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		select {
		case evt := <-p.buf:
			if err := ctx.Err(); err != nil {
				p.drop(evt, err)
				continue
			}
			p.deliver(ctx, evt)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, evt TrialExpired) {
	body, err := json.Marshal(evt)
	if err != nil {
		p.drop(evt, err)
		return
	}
	if p.conn == nil {
		conn, err := p.connect(ctx)
		if err != nil {
			p.drop(evt, err)
			return
		}
		p.conn = conn
	}
	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.send(sendCtx, body); err != nil {
		_ = p.conn.close()
		p.conn = nil
		p.drop(evt, err)
		return
	}
	p.logger.Debug().Str("user_id", evt.UserID).Str("queue", p.queue).Msg("events: published")
}

func (p *Publisher) drop(evt TrialExpired, err error) {
	p.logger.Warn().Err(err).
		Str("user_id", evt.UserID).
		Str("type", evt.Type).
		Msg("events: dropped")
	if p.drops != nil {
		p.drops.EventDropped()
	}
}

type amqpSender struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func dialAMQP(url, queue string) (sender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare %s: %w", queue, err)
	}
	return &amqpSender{conn: conn, ch: ch, queue: queue}, nil
}

func (s *amqpSender) send(ctx context.Context, body []byte) error {
	return s.ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         TypeTrialExpired,
		Body:         body,
	})
}

func (s *amqpSender) close() error {
	_ = s.ch.Close()
	return s.conn.Close()
}
