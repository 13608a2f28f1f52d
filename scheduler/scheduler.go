package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "quoteflow/config"
	"quoteflow/logger"
	"quoteflow/models"
	"quoteflow/reader"
	"quoteflow/writer"
)

// Scheduler drives the polling path. Each tick fans out to every connector
// concurrently, joins at an aggregation barrier, hands the collected batch
// to the sink, then sleeps the remainder of the target interval. A failed
// connector contributes nothing to the tick; a failed write is logged and
// the next tick proceeds normally.
type Scheduler struct {
	connectors []reader.Connector
	sink       writer.Sink
	interval   time.Duration
	timeout    time.Duration
	log        *logger.Log
}

func New(cfg *appconfig.Config, connectors []reader.Connector, sink writer.Sink) *Scheduler {
	interval := cfg.Scheduler.Interval
	if interval <= 0 {
		interval = time.Second
	}
	timeout := cfg.Reader.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Scheduler{
		connectors: connectors,
		sink:       sink,
		interval:   interval,
		timeout:    timeout,
		log:        logger.GetLogger(),
	}
}

// Run executes ticks until ctx is cancelled. Cancellation is observed at
// the sleep boundary; a tick already in flight finishes its write first.
func (s *Scheduler) Run(ctx context.Context) error {
	log := s.log.WithComponent("scheduler")
	log.WithFields(logger.Fields{
		"interval":   s.interval.String(),
		"connectors": len(s.connectors),
	}).Info("starting scheduler")

	for {
		start := time.Now()

		batch := s.collect(ctx)
		if len(batch) > 0 {
			batchID := uuid.New().String()
			if err := s.sink.Write(ctx, batch); err != nil {
				log.WithError(err).WithFields(logger.Fields{
					"batch_id": batchID,
					"records":  len(batch),
				}).Error("batch write failed")
			} else {
				log.WithFields(logger.Fields{
					"batch_id": batchID,
					"records":  len(batch),
				}).Debug("batch written")
			}
		}

		elapsed := time.Since(start)
		if elapsed > s.interval {
			log.WithFields(logger.Fields{
				"elapsed_ms":  elapsed.Milliseconds(),
				"interval_ms": s.interval.Milliseconds(),
			}).Warn("tick took longer than interval")
		}
		if err := s.sleep(ctx, elapsed); err != nil {
			log.Info("scheduler stopped")
			return nil
		}
	}
}

// collect fans out one Fetch per connector and joins the results. Slots
// keep registration order so batches are deterministic.
func (s *Scheduler) collect(ctx context.Context) []models.Record {
	results := make([]*models.Record, len(s.connectors))
	var wg sync.WaitGroup
	for i, c := range s.connectors {
		wg.Add(1)
		go func(i int, c reader.Connector) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			rec, err := c.Fetch(fetchCtx)
			if err != nil {
				s.log.WithComponent("scheduler").WithError(err).WithFields(logger.Fields{
					"connector":   c.Name(),
					"kind":        failureKind(err),
					"duration_ms": time.Since(start).Milliseconds(),
				}).Warn("fetch failed")
				return
			}
			results[i] = rec
		}(i, c)
	}
	wg.Wait()

	batch := make([]models.Record, 0, len(results))
	for _, r := range results {
		if r != nil {
			batch = append(batch, *r)
		}
	}
	return batch
}

// sleep blocks for the remainder of the interval or until ctx is done.
func (s *Scheduler) sleep(ctx context.Context, elapsed time.Duration) error {
	d := sleepFor(s.interval, elapsed)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sleepFor computes the post-tick sleep: the target interval minus the time
// the tick took, floored at zero. An overlong tick starts the next tick
// immediately; there is no cross-tick drift correction.
func sleepFor(interval, elapsed time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, reader.ErrRejected):
		return "rejected"
	case errors.Is(err, reader.ErrMalformed):
		return "malformed"
	case errors.Is(err, reader.ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
