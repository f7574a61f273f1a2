package gochannel

import (
	"context"
	"encoding/json"
	"fmt"

	"fitcoach-be/pkg/queue"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Queue is an in-process job queue on top of watermill's gochannel pub/sub.
// Suitable for single-node deployments and tests; jobs do not survive a
// process restart.
type Queue struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func New(topic string) *Queue {
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	return &Queue{
		pubSub: pubSub,
		topic:  topic,
	}
}

func (q *Queue) Enqueue(ctx context.Context, job queue.IndexJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal index job: %w", err)
	}
	return q.pubSub.Publish(q.topic, message.NewMessage(watermill.NewUUID(), payload))
}

func (q *Queue) Consume(ctx context.Context) (<-chan queue.Delivery, error) {
	messages, err := q.pubSub.Subscribe(ctx, q.topic)
	if err != nil {
		return nil, err
	}

	out := make(chan queue.Delivery)
	go func() {
		defer close(out)
		for msg := range messages {
			var job queue.IndexJob
			if err := json.Unmarshal(msg.Payload, &job); err != nil {
				// Ack malformed messages to prevent infinite redelivery
				msg.Ack()
				continue
			}

			m := msg
			select {
			case out <- queue.Delivery{
				Job: job,
				Ack: func() { m.Ack() },
				Nak: func() { m.Nack() },
			}:
			case <-ctx.Done():
				m.Nack()
				return
			}
		}
	}()

	return out, nil
}

func (q *Queue) Close() error {
	return q.pubSub.Close()
}
