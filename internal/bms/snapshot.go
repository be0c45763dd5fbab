package bms

// Snapshot is the most recent successfully decoded value of every field.
// A field keeps its previous value until a later decode of it succeeds.
type Snapshot struct {
	StateOfCharge float64
	Current       float64
	IsCharging    bool
	Voltage       float64

	CellVoltages []float64
	MinCell      float64
	MaxCell      float64
	AvgCell      float64

	Temperatures []int

	StatusFlags string
	FaultFlags  string
}

// Clone returns a deep copy, for sinks that keep data past Publish.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	c := *s
	if s.CellVoltages != nil {
		c.CellVoltages = append([]float64(nil), s.CellVoltages...)
	}
	if s.Temperatures != nil {
		c.Temperatures = append([]int(nil), s.Temperatures...)
	}
	return &c
}

func (s *Snapshot) setCurrent(amps float64) {
	s.Current = amps
	s.IsCharging = amps > 0
}

func (s *Snapshot) setCells(cells []float64) {
	minCell, maxCell, sum := cells[0], cells[0], 0.0
	for _, v := range cells {
		minCell = min(minCell, v)
		maxCell = max(maxCell, v)
		sum += v
	}

	s.CellVoltages = cells
	s.MinCell = minCell
	s.MaxCell = maxCell
	s.AvgCell = sum / float64(len(cells))
}
