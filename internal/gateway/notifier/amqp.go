package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"bodycomp/internal/logger"
	"bodycomp/internal/pkg/circuit"
)

const (
	publishTimeout          = 10 * time.Second
	defaultFailureThreshold = 3
	defaultCooldown         = 30 * time.Second
)

var errNotConnected = errors.New("amqp: not connected to a server")

// amqpChannel is the subset of *amqp.Channel the publisher needs.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpSession interface {
	Channel() (amqpChannel, error)
	Close() error
}

type dialFunc func(url string) (amqpSession, error)

type connSession struct{ conn *amqp.Connection }

func (s connSession) Channel() (amqpChannel, error) { return s.conn.Channel() }
func (s connSession) Close() error                  { return s.conn.Close() }

func dialAMQP(url string) (amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return connSession{conn: conn}, nil
}

// AMQPPublisher sends events as JSON to a durable queue. The connection is
// opened lazily; after a failure it is dropped and redialled on the next
// publish. Repeated failures open a circuit breaker so that an unreachable
// broker is not redialled on every mutation.
type AMQPPublisher struct {
	url     string
	queue   string
	dial    dialFunc
	breaker *circuit.Breaker

	mu      sync.Mutex
	session amqpSession
	channel amqpChannel
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	url, queue = strings.TrimSpace(url), strings.TrimSpace(queue)
	if url == "" {
		return nil, fmt.Errorf("amqp url 不能为空")
	}
	if queue == "" {
		return nil, fmt.Errorf("amqp queue 不能为空")
	}
	return &AMQPPublisher{
		url:     url,
		queue:   queue,
		dial:    dialAMQP,
		breaker: circuit.New("amqp:"+queue, defaultFailureThreshold, defaultCooldown),
	}, nil
}

// WithBreaker 替换默认熔断参数；threshold<=0 时保持默认。
func (p *AMQPPublisher) WithBreaker(threshold int, cooldown time.Duration) *AMQPPublisher {
	if threshold > 0 {
		p.breaker = circuit.New("amqp:"+p.queue, threshold, cooldown)
	}
	return p
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.breaker.Do(func() error {
		return p.publishLocked(ctx, evt, body)
	})
}

func (p *AMQPPublisher) publishLocked(ctx context.Context, evt Event, body []byte) error {
	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = ch.PublishWithContext(pubCtx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.At,
		Type:         string(evt.Type),
		Headers:      evt.headers(),
		Body:         body,
	})
	if err != nil {
		logger.Warnf("[notify] amqp publish failed, will reconnect: %v", err)
		p.resetLocked()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) ensureChannel() (amqpChannel, error) {
	if p.channel != nil {
		return p.channel, nil
	}
	if p.dial == nil {
		return nil, errNotConnected
	}
	session, err := p.dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := session.Channel()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = session.Close()
		return nil, fmt.Errorf("amqp declare %s: %w", p.queue, err)
	}
	p.session, p.channel = session, ch
	logger.Infof("[notify] amqp connected, queue=%s", p.queue)
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.session != nil {
		_ = p.session.Close()
	}
	p.channel, p.session = nil, nil
}

// Close releases the connection, if any.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
