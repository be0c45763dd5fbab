package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"testing"

	"codeberg.org/mutker/roboteqbms/internal/bms"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *bms.CycleResult {
	return &bms.CycleResult{
		Session: "3b4f7a0e-0000-4000-8000-000000000001",
		Seq:     7,
		Verdict: bms.PartiallyDegraded,
		Outcomes: []bms.Outcome{
			{Field: bms.FieldStateOfCharge, OK: true},
			{Field: bms.FieldVoltage, Err: goerrors.New("tag not found")},
		},
		Snapshot: &bms.Snapshot{
			StateOfCharge: 76.5,
			Current:       -0.5,
			Voltage:       24.1,
			CellVoltages:  []float64{3.01, 3.02},
			MinCell:       3.01,
			MaxCell:       3.02,
			AvgCell:       3.015,
			Temperatures:  []int{25, 26, 27},
			StatusFlags:   "OK",
			FaultFlags:    "NONE",
		},
	}
}

func TestBuildRecords(t *testing.T) {
	snap := sampleResult().Snapshot
	r := BuildRecords(snap)

	assert.Equal(t, BatteryStatus{
		Level:   76.5,
		Current: -0.5,
		Voltage: 24.1,
		MinCell: 3.01,
		MaxCell: 3.02,
		AvgCell: 3.015,
	}, r.Battery)
	assert.Equal(t, []int{25, 26, 27}, r.Temperature.Data)
	assert.Equal(t, "OK", r.StatusFlags.Data)
	assert.Equal(t, "NONE", r.FaultFlags.Data)

	r.Temperature.Data[0] = 99
	assert.Equal(t, 25, snap.Temperatures[0], "records do not alias the snapshot")
}

func TestBuildRecordsEmptySnapshot(t *testing.T) {
	r := BuildRecords(&bms.Snapshot{})

	payload, err := json.Marshal(r.Temperature)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(payload))
}

func TestEncodeRecords(t *testing.T) {
	messages, err := encodeRecords(BuildRecords(sampleResult().Snapshot))
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, "data", messages[0].channel)
	assert.JSONEq(t, `{"level":76.5,"current":-0.5,"is_charging":false,"voltage":24.1,
		"min_cell":3.01,"max_cell":3.02,"avg_cell":3.015}`, string(messages[0].payload))
	assert.Equal(t, "temperature", messages[1].channel)
	assert.JSONEq(t, `{"data":[25,26,27]}`, string(messages[1].payload))
	assert.Equal(t, "status_flags", messages[2].channel)
	assert.JSONEq(t, `{"data":"OK"}`, string(messages[2].payload))
	assert.Equal(t, "fault_flags", messages[3].channel)
	assert.JSONEq(t, `{"data":"NONE"}`, string(messages[3].payload))
}

func TestHashFields(t *testing.T) {
	result := sampleResult()
	fields := hashFields(result, BuildRecords(result.Snapshot))

	assert.Equal(t, "7", fields["seq"])
	assert.Equal(t, "partially_degraded", fields["verdict"])
	assert.Equal(t, "76.5", fields["level"])
	assert.Equal(t, "-0.5", fields["current"])
	assert.Equal(t, "false", fields["is_charging"])
	assert.Equal(t, "25:26:27", fields["temperatures"])
	assert.Equal(t, "NONE", fields["fault_flags"])
}

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) Publish(context.Context, *bms.CycleResult) error {
	s.calls++
	return s.err
}

func TestFanout(t *testing.T) {
	failing := &stubSink{err: goerrors.New("redis down")}
	ok := &stubSink{}

	err := Fanout{failing, ok}.Publish(context.Background(), sampleResult())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls, "later sinks still run")

	assert.NoError(t, Fanout{ok}.Publish(context.Background(), sampleResult()))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, logger.DebugLevel, true)

	sink := NewLogSink(logger.With("telemetry"), true)
	require.NoError(t, sink.Publish(context.Background(), sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Some BMS fields not updated")
	assert.Contains(t, out, "failed=voltage")
	assert.Contains(t, out, "state_of_charge=76.5")
	assert.Contains(t, out, "fault_flags=NONE")

	assert.Error(t, sink.Publish(context.Background(), &bms.CycleResult{}))
}
