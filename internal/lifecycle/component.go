package lifecycle

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/bms"
	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/logger"
)

const shutdownNotifyTimeout = 2 * time.Second

// Driver is the part of bms.Poller the component schedules.
type Driver interface {
	PollOnce(ctx context.Context) *bms.CycleResult
	Attach(t bms.Transport)
}

// StateObserver is told about every state transition.
type StateObserver interface {
	StateChanged(ctx context.Context, from, to State) error
}

// OpenFunc opens a fresh transport to the device.
type OpenFunc func() (bms.Transport, error)

type Config struct {
	Interval          time.Duration
	Reconnect         bool
	ReconnectInterval time.Duration
}

// Component owns the transport and drives a Driver on a fixed interval,
// moving between ready and failure as the device stops and starts answering.
type Component struct {
	cfg      Config
	open     OpenFunc
	observer StateObserver
	log      logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State

	transport     bms.Transport
	lastReconnect time.Time
}

type Option func(*Component)

func WithObserver(o StateObserver) Option {
	return func(c *Component) { c.observer = o }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Component) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Component) { c.now = now }
}

func New(cfg Config, open OpenFunc, opts ...Option) (*Component, error) {
	errFactory := errors.New()

	if cfg.Interval <= 0 {
		return nil, errFactory.WithData(ErrInvalidConfig, cfg.Interval)
	}
	if cfg.Reconnect && cfg.ReconnectInterval <= 0 {
		return nil, errFactory.WithData(ErrInvalidConfig, cfg.ReconnectInterval)
	}
	if open == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "open function is nil")
	}

	c := &Component{
		cfg:   cfg,
		open:  open,
		log:   logger.With("lifecycle"),
		now:   time.Now,
		state: StateInit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current state. Safe to call from any goroutine.
func (c *Component) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run opens the transport, then polls driver once per interval until ctx is
// done. It returns an error only when the transport cannot be opened at
// startup; afterwards failures are handled by the failure state.
func (c *Component) Run(ctx context.Context, driver Driver) error {
	errFactory := errors.New()

	if s := c.State(); s != StateInit {
		return errFactory.WithData(ErrInvalidState, s.String())
	}

	transport, err := c.open()
	if err != nil {
		return errFactory.Wrap(ErrOpenFailed, err)
	}
	c.transport = transport
	driver.Attach(transport)

	c.switchTo(ctx, StateStandby)
	c.switchTo(ctx, StateReady)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown(ctx, driver)
			return nil
		case <-ticker.C:
			c.step(ctx, driver)
		}
	}
}

// ReportTotalLoss moves a ready component into the failure state.
func (c *Component) ReportTotalLoss(ctx context.Context, result *bms.CycleResult) {
	c.log.Error().
		Uint64("seq", result.Seq).
		Int("failed_fields", len(result.Failed())).
		Msg("No response from BMS")

	if c.State() == StateReady {
		c.switchTo(ctx, StateFailure)
	}
}

func (c *Component) step(ctx context.Context, driver Driver) {
	if c.State() == StateFailure {
		c.reconnect(driver)
	}

	result := driver.PollOnce(ctx)

	if c.State() == StateFailure && result.Verdict != bms.AllFailed {
		c.log.Info().
			Str("verdict", result.Verdict.String()).
			Msg("BMS responding again")
		c.switchTo(ctx, StateReady)
	}
}

// reconnect reopens the transport, at most once per reconnect interval.
func (c *Component) reconnect(driver Driver) {
	if !c.cfg.Reconnect {
		return
	}

	now := c.now()
	if now.Sub(c.lastReconnect) < c.cfg.ReconnectInterval {
		return
	}
	c.lastReconnect = now

	c.closeTransport(driver)

	transport, err := c.open()
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to reopen transport")
		return
	}

	c.log.Info().Msg("Transport reopened")
	c.transport = transport
	driver.Attach(transport)
}

func (c *Component) closeTransport(driver Driver) {
	driver.Attach(nil)

	if c.transport == nil {
		return
	}
	if err := c.transport.Close(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to close transport")
	}
	c.transport = nil
}

func (c *Component) shutdown(ctx context.Context, driver Driver) {
	c.closeTransport(driver)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownNotifyTimeout)
	defer cancel()

	c.switchTo(notifyCtx, StateShutdown)
}

func (c *Component) switchTo(ctx context.Context, to State) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	if to == StateFailure {
		c.lastReconnect = c.now()
	}
	c.mu.Unlock()

	c.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("State changed")

	if c.observer == nil {
		return
	}
	if err := c.observer.StateChanged(ctx, from, to); err != nil {
		c.log.Warn().Err(err).Str("state", to.String()).Msg("Failed to notify state change")
	}
}
