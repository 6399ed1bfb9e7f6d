package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timeline.metlink.nz/internal/logging"
)

// Coordinator polls the builder on a fixed cadence and holds the latest
// reconciled timeline for pull-based consumers. When a poll fails entirely
// the previous snapshot and derived fields stay in place; only a
// successful build replaces them. At most one build runs at a time for the
// watched (route, direction) key: overlapping demands await the in-flight
// build instead of duplicating it.
type Coordinator struct {
	builder        *Builder
	target         Target
	directionLabel string
	interval       time.Duration
	timeout        time.Duration
	logger         *slog.Logger

	mu          sync.RWMutex
	snapshot    *Timeline
	summary     *Summary
	lastErr     error
	lastSuccess time.Time

	group        singleflight.Group
	pollCtx      context.Context
	pollCancel   context.CancelFunc
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewCoordinator creates a Coordinator for one route/direction. interval is
// the polling cadence; timeout bounds each whole poll cycle.
func NewCoordinator(builder *Builder, target Target, directionLabel string, interval, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	pollCtx, pollCancel := context.WithCancel(context.Background())
	return &Coordinator{
		builder:        builder,
		target:         target,
		directionLabel: directionLabel,
		interval:       interval,
		timeout:        timeout,
		logger: logger.With(
			slog.String("component", "timeline_coordinator"),
			slog.String("route_id", target.RouteID),
			slog.Int("direction_id", target.DirectionID)),
		pollCtx:      pollCtx,
		pollCancel:   pollCancel,
		shutdownChan: make(chan struct{}),
	}
}

// Target returns the route/direction this coordinator watches.
func (c *Coordinator) Target() Target {
	return c.target
}

// Start performs an initial refresh and launches the periodic poll loop.
func (c *Coordinator) Start(ctx context.Context) {
	if _, err := c.Refresh(ctx); err != nil {
		logging.LogError(c.logger, "initial timeline refresh failed", err)
	}
	c.wg.Add(1)
	go c.pollPeriodically()
}

// Shutdown stops the poll loop and waits for it to exit. Safe to call more
// than once. Cancelling the poll context abandons in-flight upstream calls;
// partial results are discarded, never applied.
func (c *Coordinator) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.pollCancel()
		close(c.shutdownChan)
		c.wg.Wait()
	})
}

func (c *Coordinator) pollPeriodically() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A tick may be pending alongside a closed shutdown channel.
			select {
			case <-c.shutdownChan:
				logging.LogOperation(c.logger, "shutting_down_timeline_polling")
				return
			default:
			}
			ctx, cancel := context.WithTimeout(c.pollCtx, c.timeout)
			ctx = logging.WithLogger(ctx, c.logger)
			if _, err := c.Refresh(ctx); err != nil {
				logging.LogError(c.logger, "timeline refresh failed", err)
			}
			cancel()
		case <-c.shutdownChan:
			logging.LogOperation(c.logger, "shutting_down_timeline_polling")
			return
		}
	}
}

// Refresh builds the timeline now, sharing any build already in flight for
// the same key. On success the snapshot and summary are replaced; on
// failure the last known values remain and the error is recorded.
func (c *Coordinator) Refresh(ctx context.Context) (*Timeline, error) {
	key := fmt.Sprintf("%s|%d", c.target.RouteID, c.target.DirectionID)
	v, err, _ := c.group.Do(key, func() (any, error) {
		tl, err := c.builder.Build(ctx, c.target)
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Lock()
		c.snapshot = tl
		c.summary = tl.Summarize(c.directionLabel)
		c.lastErr = nil
		c.lastSuccess = time.Now()
		c.mu.Unlock()
		return tl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Timeline), nil
}

// Timeline returns the latest successful snapshot, or nil before the first
// successful poll.
func (c *Coordinator) Timeline() *Timeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Summary returns the derived display fields from the latest successful
// poll, or nil before the first one.
func (c *Coordinator) Summary() *Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary
}

// LastError returns the most recent poll error, cleared by a successful
// poll.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastSuccess returns when the snapshot was last replaced.
func (c *Coordinator) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}
