package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SweepConcurrencyConfig defines concurrency limits for drift sweeps
type SweepConcurrencyConfig struct {
	MaxConcurrentChannels int           // Max channels swept at once
	QueueTimeout          time.Duration // Max time to wait for a slot
}

// DefaultSweepConcurrencyConfig returns production-ready defaults
func DefaultSweepConcurrencyConfig() *SweepConcurrencyConfig {
	return &SweepConcurrencyConfig{
		MaxConcurrentChannels: 5,
		QueueTimeout:          1 * time.Minute,
	}
}

// ChannelSemaphore limits how many drift sweeps run concurrently overall and
// serializes sweeps against any single channel, so one channel's rate limit
// is never consumed by two sweeps at once.
type ChannelSemaphore struct {
	mu          sync.Mutex
	global      chan struct{}
	channelSems map[string]chan struct{}
	config      *SweepConcurrencyConfig
}

// NewChannelSemaphore creates a new channel semaphore
func NewChannelSemaphore(config *SweepConcurrencyConfig) *ChannelSemaphore {
	if config == nil {
		config = DefaultSweepConcurrencyConfig()
	}
	return &ChannelSemaphore{
		global:      make(chan struct{}, config.MaxConcurrentChannels),
		channelSems: make(map[string]chan struct{}),
		config:      config,
	}
}

func (cs *ChannelSemaphore) channelSem(channelID string) chan struct{} {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if sem, exists := cs.channelSems[channelID]; exists {
		return sem
	}
	sem := make(chan struct{}, 1)
	cs.channelSems[channelID] = sem
	return sem
}

// Acquire obtains both the global and the per-channel slot. The returned
// release function must be called exactly once.
func (cs *ChannelSemaphore) Acquire(ctx context.Context, channelID string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, cs.config.QueueTimeout)
	defer cancel()

	select {
	case cs.global <- struct{}{}:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("timed out waiting for a sweep slot")
	}

	sem := cs.channelSem(channelID)
	select {
	case sem <- struct{}{}:
	case <-waitCtx.Done():
		<-cs.global
		return nil, fmt.Errorf("timed out waiting for channel %s", channelID)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-sem
			<-cs.global
		})
	}
	return release, nil
}
