package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes and consumes delivery jobs on a durable RabbitMQ queue.
type AMQPQueue struct {
	logger *zap.Logger
	name   string
	conn   *amqp.Connection
	ch     *amqp.Channel

	// amqp.Channel is not safe for concurrent publishing
	pubMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// DialAMQP connects to url and declares the queue.
func DialAMQP(url, name string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &AMQPQueue{
		logger: logger,
		name:   name,
		conn:   conn,
		ch:     ch,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (q *AMQPQueue) Publish(ctx context.Context, job DeliveryJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	return q.ch.Publish("", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.CampaignID,
		Body:         body,
	})
}

// Subscribe consumes with manual acks. Every delivery is acked once handled,
// failed or not; nothing is requeued.
func (q *AMQPQueue) Subscribe(handler Handler) error {
	msgs, err := q.ch.Consume(
		q.name,
		"",
		false, // autoAck = false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range msgs {
			q.handle(handler, d)
		}
	}()
	return nil
}

func (q *AMQPQueue) handle(handler Handler, d amqp.Delivery) {
	job, err := DecodeJob(d.Body)
	if err != nil {
		q.logger.Warn("invalid delivery job", zap.Error(err))
		_ = d.Ack(false)
		return
	}
	if err := handler(q.ctx, job); err != nil {
		q.logger.Error("delivery job failed", zap.String("campaign_id", job.CampaignID), zap.Error(err))
	}
	if err := d.Ack(false); err != nil {
		q.logger.Warn("ack failed", zap.String("campaign_id", job.CampaignID), zap.Error(err))
	}
}

// DecodeJob parses an AMQP message body.
func DecodeJob(body []byte) (DeliveryJob, error) {
	var job DeliveryJob
	if err := json.Unmarshal(body, &job); err != nil {
		return DeliveryJob{}, err
	}
	if job.CampaignID == "" {
		return DeliveryJob{}, fmt.Errorf("job without campaign_id")
	}
	return job, nil
}

// Close stops consuming, cancels running jobs and closes the connection.
func (q *AMQPQueue) Close() error {
	var err error
	q.once.Do(func() {
		q.cancel()
		if cerr := q.ch.Close(); cerr != nil {
			err = cerr
		}
		q.wg.Wait()
		if cerr := q.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

var _ Queue = (*AMQPQueue)(nil)
