package bms

import (
	"context"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"github.com/google/uuid"
)

// Poller runs poll cycles against a single device. It is not safe for
// concurrent use; one goroutine drives it.
type Poller struct {
	transport Transport
	sink      Sink
	health    HealthReporter
	log       logger.Logger
	now       func() time.Time

	session  string
	seq      uint64
	snapshot *Snapshot
}

type Option func(*Poller)

func WithTransport(t Transport) Option {
	return func(p *Poller) { p.transport = t }
}

func WithSink(s Sink) Option {
	return func(p *Poller) { p.sink = s }
}

func WithHealthReporter(h HealthReporter) Option {
	return func(p *Poller) { p.health = h }
}

// WithSession overrides the generated run identifier.
func WithSession(id string) Option {
	return func(p *Poller) { p.session = id }
}

func WithLogger(l logger.Logger) Option {
	return func(p *Poller) { p.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

func NewPoller(opts ...Option) *Poller {
	p := &Poller{
		log:      logger.With("poller"),
		now:      time.Now,
		snapshot: &Snapshot{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.session == "" {
		p.session = uuid.NewString()
	}
	return p
}

// Session returns the identifier shared by every cycle of this poller.
func (p *Poller) Session() string {
	return p.session
}

// Attach replaces the transport used by subsequent cycles. A nil transport
// makes every field fail until a new one is attached.
func (p *Poller) Attach(t Transport) {
	p.transport = t
}

// Snapshot returns a copy of the current snapshot.
func (p *Poller) Snapshot() *Snapshot {
	return p.snapshot.Clone()
}

// PollOnce queries every field once, in order, and updates the snapshot with
// whatever decoded. A cycle with no successful field is reported to the
// health reporter. The result is always handed to the sink; sink errors are
// logged and dropped.
func (p *Poller) PollOnce(ctx context.Context) *CycleResult {
	p.seq++
	result := &CycleResult{
		Session:   p.session,
		Seq:       p.seq,
		StartedAt: p.now(),
		Outcomes:  make([]Outcome, 0, len(Queries)),
		Snapshot:  p.snapshot,
	}

	for _, q := range Queries {
		outcome := p.query(q)
		if !outcome.OK {
			p.log.Debug().
				Str("field", q.Field.String()).
				Err(outcome.Err).
				Msg("Field not updated")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.FinishedAt = p.now()
	result.Verdict = Evaluate(result.Outcomes)

	if result.Verdict == AllFailed && p.health != nil {
		p.health.ReportTotalLoss(ctx, result)
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, result); err != nil {
			p.log.Warn().
				Err(err).
				Uint64("seq", result.Seq).
				Msg("Failed to publish cycle")
		}
	}

	return result
}

func (p *Poller) query(q Query) Outcome {
	errFactory := errors.New()

	if p.transport == nil {
		return Outcome{
			Field: q.Field,
			Err:   &DecodeError{Field: q.Field, Err: errFactory.New(ErrNoTransport)},
		}
	}

	if _, err := p.transport.Write(q.Command); err != nil {
		return Outcome{
			Field: q.Field,
			Err:   &DecodeError{Field: q.Field, Err: errFactory.Wrap(ErrCommandFailed, err)},
		}
	}

	line, ok := p.transport.ReadLine()
	if !ok {
		line = ""
	}

	return Decode(q.Field, line, p.snapshot)
}
