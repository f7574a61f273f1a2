package natsjs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitcoach-be/pkg/queue"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName    = "INDEX_JOBS"
	subjectPrefix = "index"
	durableName   = "indexing-worker"
)

// Queue is a durable job queue on top of NATS JetStream. Jobs survive
// process restarts; unacknowledged jobs are redelivered, giving the
// at-least-once semantics the indexing worker is built for.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func New(url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %q: %w", streamName, err)
	}

	return &Queue{nc: nc, js: js}, nil
}

func (q *Queue) Enqueue(ctx context.Context, job queue.IndexJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal index job: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, job.Kind)
	if _, err := q.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish job to subject %s: %w", subject, err)
	}
	return nil
}

func (q *Queue) Consume(ctx context.Context) (<-chan queue.Delivery, error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	out := make(chan queue.Delivery, 64)
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var job queue.IndexJob
		if err := json.Unmarshal(msg.Data(), &job); err != nil {
			// Malformed payloads are terminated, not redelivered forever
			_ = msg.Term()
			return
		}

		select {
		case out <- queue.Delivery{
			Job: job,
			Ack: func() { _ = msg.Ack() },
			Nak: func() { _ = msg.Nak() },
		}:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
		close(out)
	}()

	return out, nil
}

func (q *Queue) Close() error {
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
