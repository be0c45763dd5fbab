package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/bms"
)

// Collector stores cycle samples
type Collector interface {
	Record(ctx context.Context, sample *Sample) error
	Close() error
}

// Repository defines the interface for sample storage
type Repository interface {
	Record(sample *Sample) error
	Close() error
}

// Sample is one stored poll cycle. It holds copies, never the live snapshot.
type Sample struct {
	Timestamp    time.Time
	Session      string
	Seq          uint64
	Verdict      string
	FailedFields int

	StateOfCharge float64
	Current       float64
	IsCharging    bool
	Voltage       float64
	MinCell       float64
	MaxCell       float64
	AvgCell       float64
	Temperatures  []int

	StatusFlags string
	FaultFlags  string
}

// NewSample copies the values of a finished cycle.
func NewSample(result *bms.CycleResult) *Sample {
	snap := result.Snapshot.Clone()
	if snap == nil {
		snap = &bms.Snapshot{}
	}

	return &Sample{
		Timestamp:     result.FinishedAt,
		Session:       result.Session,
		Seq:           result.Seq,
		Verdict:       result.Verdict.String(),
		FailedFields:  len(result.Failed()),
		StateOfCharge: snap.StateOfCharge,
		Current:       snap.Current,
		IsCharging:    snap.IsCharging,
		Voltage:       snap.Voltage,
		MinCell:       snap.MinCell,
		MaxCell:       snap.MaxCell,
		AvgCell:       snap.AvgCell,
		Temperatures:  snap.Temperatures,
		StatusFlags:   snap.StatusFlags,
		FaultFlags:    snap.FaultFlags,
	}
}

// temperature returns the i-th reading or nil when the sensor did not report.
func (s *Sample) temperature(i int) interface{} {
	if i < len(s.Temperatures) {
		return int64(s.Temperatures[i])
	}
	return nil
}
