package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

// Producer publishes order-status-changed events keyed by order id, so all
// events for one order land on the same partition in order.
type Producer struct {
	async sarama.AsyncProducer
	topic string
	log   *slog.Logger
	done  chan struct{}
}

func NewProducer(brokers []string, topic string, log *slog.Logger) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Net.DialTimeout = 5 * time.Second

	async, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	p := &Producer{async: async, topic: topic, log: log, done: make(chan struct{})}
	go p.drainErrors()
	return p, nil
}

// PublishStatusChanged is fire-and-forget; delivery failures surface on the
// error channel and are logged, never returned to the request path.
func (p *Producer) PublishStatusChanged(_ context.Context, ev usecase.OrderStatusChangedMsg) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	p.async.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.OrderID),
		Value: sarama.ByteEncoder(value),
	}
	return nil
}

func (p *Producer) drainErrors() {
	defer close(p.done)
	for perr := range p.async.Errors() {
		p.log.Error("kafka publish failed", "topic", perr.Msg.Topic, "err", perr.Err)
	}
}

// Close flushes in-flight messages and stops the error drain.
func (p *Producer) Close() error {
	err := p.async.Close()
	<-p.done
	return err
}

var _ usecase.StatusEventPublisher = (*Producer)(nil)
