package telemetry

import "codeberg.org/mutker/roboteqbms/internal/bms"

// BatteryStatus is published on the data channel.
type BatteryStatus struct {
	Level      float64 `json:"level"`
	Current    float64 `json:"current"`
	IsCharging bool    `json:"is_charging"`
	Voltage    float64 `json:"voltage"`
	MinCell    float64 `json:"min_cell"`
	MaxCell    float64 `json:"max_cell"`
	AvgCell    float64 `json:"avg_cell"`
}

// Temperature is published on the temperature channel.
type Temperature struct {
	Data []int `json:"data"`
}

// Text carries the raw flag strings.
type Text struct {
	Data string `json:"data"`
}

// Records are the four messages emitted for every cycle.
type Records struct {
	Battery     BatteryStatus
	Temperature Temperature
	StatusFlags Text
	FaultFlags  Text
}

// BuildRecords maps a snapshot onto the outgoing messages. Stale fields are
// published with their last known value.
func BuildRecords(s *bms.Snapshot) Records {
	temps := make([]int, len(s.Temperatures))
	copy(temps, s.Temperatures)

	return Records{
		Battery: BatteryStatus{
			Level:      s.StateOfCharge,
			Current:    s.Current,
			IsCharging: s.IsCharging,
			Voltage:    s.Voltage,
			MinCell:    s.MinCell,
			MaxCell:    s.MaxCell,
			AvgCell:    s.AvgCell,
		},
		Temperature: Temperature{Data: temps},
		StatusFlags: Text{Data: s.StatusFlags},
		FaultFlags:  Text{Data: s.FaultFlags},
	}
}
