package bms

// Verdict summarizes the outcomes of one cycle.
type Verdict int

const (
	Healthy Verdict = iota
	PartiallyDegraded
	AllFailed
)

func (v Verdict) String() string {
	switch v {
	case Healthy:
		return "healthy"
	case PartiallyDegraded:
		return "partially_degraded"
	case AllFailed:
		return "all_failed"
	default:
		return "unknown"
	}
}

// Evaluate returns AllFailed when no outcome succeeded (including when there
// are none), Healthy when all did, and PartiallyDegraded otherwise.
func Evaluate(outcomes []Outcome) Verdict {
	ok := 0
	for _, o := range outcomes {
		if o.OK {
			ok++
		}
	}

	switch {
	case ok == 0:
		return AllFailed
	case ok == len(outcomes):
		return Healthy
	default:
		return PartiallyDegraded
	}
}
