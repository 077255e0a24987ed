package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultDialTimeout bounds a broker dial when the caller's context has no
// deadline.
const DefaultDialTimeout = 5 * time.Second

// ErrBrokerUnavailable is returned when the broker cannot be dialed.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// dialTimeout is the time left before ctx's deadline, or DefaultDialTimeout.
func dialTimeout(ctx context.Context) time.Duration {
	d, ok := ctx.Deadline()
	if !ok {
		return DefaultDialTimeout
	}
	if left := time.Until(d); left < DefaultDialTimeout {
		return left
	}
	return DefaultDialTimeout
}

// dial connects to url, giving up after timeout.
func dial(url string, timeout time.Duration) (*amqp.Connection, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return conn, nil
}

// Publisher sends purchase events to RabbitMQ.  The connection is dialed
// lazily and re-dialed after the broker drops it.  Failures are logged and
// returned so callers may ignore them.
type Publisher struct {
	url string
	log zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log.With().Str("component", "publisher").Logger()}
}

func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := dial(p.url, dialTimeout(ctx))
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

// PublishPurchaseCompleted publishes ev as a persistent message on the
// purchase.completed queue.  A dial that fails or outlives ctx returns an
// error wrapping ErrBrokerUnavailable.
func (p *Publisher) PublishPurchaseCompleted(ctx context.Context, ev PurchaseCompletedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("marshal event failed")
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.connection(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("dial failed")
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.log.Error().Err(err).Msg("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(PurchaseCompletedQueue, true, false, false, false, nil); err != nil {
		p.log.Error().Err(err).Msg("queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", PurchaseCompletedQueue, false, false, pub); err != nil {
		p.log.Error().Err(err).Uint64("library_entry_id", ev.LibraryEntryID).Msg("publish failed")
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
