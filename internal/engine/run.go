package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Run ticks at the configured interval while the controller is running,
// until ctx is cancelled or the controller is disposed.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	interval := c.cfg.TickInterval
	c.mu.Unlock()

	c.logger.Info("Analysis loop started", zap.Duration("tick_interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Analysis loop stopped")
			return nil
		case <-ticker.C:
			st := c.Status()
			if st.State == StateDisposed {
				c.logger.Info("Analysis loop stopped, engine disposed")
				return nil
			}
			if !st.Running {
				continue
			}
			if _, err := c.AnalyzeTick(ctx); err != nil && !errors.Is(err, ErrInsufficientData) {
				c.logger.Error("Analysis tick failed", zap.Error(err))
			}
		}
	}
}
