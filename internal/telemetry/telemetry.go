package telemetry

import (
	"context"
	"strings"

	"codeberg.org/mutker/roboteqbms/internal/bms"
	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/logger"
)

// Fanout publishes every cycle to each sink in order. All sinks are tried;
// their errors are joined.
type Fanout []bms.Sink

func (f Fanout) Publish(ctx context.Context, result *bms.CycleResult) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Publish(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each cycle to the log.
type LogSink struct {
	log     logger.Logger
	verbose bool
}

// NewLogSink returns a sink logging cycle values at info level when verbose
// and at debug level otherwise.
func NewLogSink(log logger.Logger, verbose bool) *LogSink {
	return &LogSink{log: log, verbose: verbose}
}

func (s *LogSink) Publish(_ context.Context, result *bms.CycleResult) error {
	if result == nil || result.Snapshot == nil {
		return errors.New().New(ErrInvalidResult)
	}

	if result.Verdict == bms.PartiallyDegraded {
		failed := make([]string, 0, len(result.Outcomes))
		for _, o := range result.Failed() {
			failed = append(failed, o.Field.String())
		}
		s.log.Warn().
			Uint64("seq", result.Seq).
			Str("failed", strings.Join(failed, ",")).
			Msg("Some BMS fields not updated")
	}

	event := s.log.Debug()
	if s.verbose {
		event = s.log.Info()
	}

	snap := result.Snapshot
	event.
		Uint64("seq", result.Seq).
		Str("verdict", result.Verdict.String()).
		Float64("state_of_charge", snap.StateOfCharge).
		Float64("current", snap.Current).
		Bool("is_charging", snap.IsCharging).
		Float64("voltage", snap.Voltage).
		Float64("min_cell", snap.MinCell).
		Float64("max_cell", snap.MaxCell).
		Float64("avg_cell", snap.AvgCell).
		Ints("temperatures", snap.Temperatures).
		Str("status_flags", snap.StatusFlags).
		Str("fault_flags", snap.FaultFlags).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("")

	return nil
}
