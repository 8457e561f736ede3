package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context) error
}

type journalConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	journal LoanJournal
	backoff time.Duration
	drain   time.Duration
}

// NewJournalConsumer provides a consumer moving loan events from the queue into the journal.
func NewJournalConsumer(logger *zap.Logger, q Queuer, journal LoanJournal) Consumer {
	return &journalConsumer{logger, q, journal, time.Second, 500 * time.Millisecond}
}

// Consume runs until the context is done then records what is still
// queued within the drain delay. Storage failures are logged and the
// event is dropped.
func (jc *journalConsumer) Consume(ctx context.Context) error {
	for {
		event, err := jc.queue.Pop(ctx)
		if err != nil && ctx.Err() != nil {
			jc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			jc.flush()
			return nil
		}

		if errors.Is(err, ErrQueueEmpty) {
			continue
		}

		if err != nil {
			jc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(jc.backoff):
			}
			continue
		}

		if err = jc.journal.Record(ctx, event); err != nil {
			jc.logger.Error("consumer: failed to record loan event", zap.Any("event", event), zap.Error(err))
		}
	}
}

// flush records the events left in the queue. It gives up once the
// drain delay is over.
func (jc *journalConsumer) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), jc.drain)
	defer cancel()
	n := 0
	for {
		event, err := jc.queue.Pop(ctx)
		if err != nil {
			break
		}
		if err = jc.journal.Record(ctx, event); err != nil {
			jc.logger.Error("consumer: failed to record loan event", zap.Any("event", event), zap.Error(err))
			continue
		}
		n++
	}
	if n > 0 {
		jc.logger.Info("consumer: flushed pending loan events", zap.Int("events", n))
	}
}
