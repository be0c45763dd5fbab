package bms

import (
	"context"
	"time"
)

// Transport is a line-oriented request/response channel to the device.
type Transport interface {
	Write(command string) (int, error)
	// ReadLine returns false when no line arrived before the read timeout
	// or the channel failed.
	ReadLine() (string, bool)
	Close() error
}

// Sink receives every cycle's result. The snapshot inside the result is only
// valid for the duration of the call; use Snapshot.Clone to keep it.
type Sink interface {
	Publish(ctx context.Context, result *CycleResult) error
}

// HealthReporter is told about cycles in which no field could be read.
type HealthReporter interface {
	ReportTotalLoss(ctx context.Context, result *CycleResult)
}

// CycleResult describes one completed poll cycle.
type CycleResult struct {
	Session    string
	Seq        uint64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
	Verdict    Verdict
	Snapshot   *Snapshot
}

// Failed returns the outcomes that did not succeed.
func (r *CycleResult) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK {
			failed = append(failed, o)
		}
	}
	return failed
}
