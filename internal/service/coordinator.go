package service

import (
	"context"
	"sync"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/pkg/logger"
	"golang-stock-scorer/pkg/telegram"
	"golang-stock-scorer/pkg/utils"
)

// runFunc is one refresh execution bound to its parameters.
type runFunc func(ctx context.Context) (*RunReport, error)

// RefreshCoordinator guards the single refresh slot: at most one background
// refresh runs at a time. The running flag, the cancel func and the message
// queue are the only state shared across requests and every mutation happens
// under one mutex.
type RefreshCoordinator struct {
	job      *RefreshJob
	log      *logger.Logger
	notifier telegram.Notifier

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	messages []string
}

// NewRefreshCoordinator creates a RefreshCoordinator. The notifier may be
// nil when Telegram notifications are disabled.
func NewRefreshCoordinator(job *RefreshJob, log *logger.Logger, notifier telegram.Notifier) *RefreshCoordinator {
	return &RefreshCoordinator{
		job:      job,
		log:      log,
		notifier: notifier,
	}
}

// StartAll launches a full-universe refresh in the background. Returns
// dto.ErrAlreadyRunning when the slot is occupied.
func (c *RefreshCoordinator) StartAll() error {
	return c.start(c.job.RunAll)
}

// StartCodes launches a refresh over the given codes only, bypassing the
// freshness window when force is set.
func (c *RefreshCoordinator) StartCodes(codes []dto.ListedStock, force bool) error {
	return c.start(func(ctx context.Context) (*RunReport, error) {
		return c.job.RunCodes(ctx, codes, force)
	})
}

func (c *RefreshCoordinator) start(run runFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return dto.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel

	utils.GoSafe(func() {
		rep, err := run(ctx)
		c.finish(rep, err)
	})
	return nil
}

func (c *RefreshCoordinator) finish(rep *RunReport, err error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.running = false

	var outcome string
	if err != nil {
		outcome = "Refresh failed: " + err.Error()
		c.messages = append(c.messages, outcome)
	} else {
		outcome = rep.OutcomeMessage()
		c.messages = append(c.messages, rep.Messages...)
		c.messages = append(c.messages, outcome)
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Error("Refresh run failed", logger.ErrorField(err))
	}
	if c.notifier != nil {
		if notifyErr := c.notifier.SendMessage(outcome); notifyErr != nil {
			c.log.Warn("Failed to send refresh notification", logger.ErrorField(notifyErr))
		}
	}
}

// Stop requests a cooperative stop. The running job observes it at its next
// per-code checkpoint; an in-flight fetch is never interrupted.
func (c *RefreshCoordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// IsRunning reports whether a refresh job currently occupies the slot.
func (c *RefreshCoordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// DrainMessages returns all messages accumulated since the last drain and
// clears the queue.
func (c *RefreshCoordinator) DrainMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.messages
	c.messages = nil
	return drained
}
