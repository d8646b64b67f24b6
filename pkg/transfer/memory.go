package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// MemoryProbe reports host memory utilization in percent
type MemoryProbe interface {
	UsedPercent(ctx context.Context) (float64, error)
}

// SystemMemoryProbe reads virtual memory statistics of the host
type SystemMemoryProbe struct{}

// UsedPercent returns the share of host memory in use
func (SystemMemoryProbe) UsedPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read virtual memory: %w", err)
	}
	return vm.UsedPercent, nil
}

// MemoryGate blocks while host memory use is at or above a threshold.
// It only delays work, it never cancels it.
type MemoryGate struct {
	threshold float64
	poll      time.Duration
	probe     MemoryProbe
	logger    *zap.Logger
}

// NewMemoryGate creates a gate that polls probe every poll interval
func NewMemoryGate(threshold float64, poll time.Duration, probe MemoryProbe, logger *zap.Logger) *MemoryGate {
	if probe == nil {
		probe = SystemMemoryProbe{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryGate{
		threshold: threshold,
		poll:      poll,
		probe:     probe,
		logger:    logger.Named("memory-gate"),
	}
}

// Wait returns once memory use drops below the threshold and reports how
// long it waited. A probe error lets the caller proceed.
func (g *MemoryGate) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	for {
		used, err := g.probe.UsedPercent(ctx)
		if err != nil {
			g.logger.Warn("Memory probe failed, continuing", zap.Error(err))
			return time.Since(start), nil
		}
		if used < g.threshold {
			return time.Since(start), nil
		}

		g.logger.Info("Memory usage above threshold, waiting",
			zap.Float64("usedPercent", used),
			zap.Float64("threshold", g.threshold),
			zap.Duration("poll", g.poll))

		if err := sleepContext(ctx, g.poll); err != nil {
			return time.Since(start), err
		}
	}
}
