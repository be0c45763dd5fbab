package lifecycle

// State is the component state. Values follow the robotnik_msgs State codes so
// downstream consumers can keep their existing mappings.
type State int

const (
	StateInit      State = 100
	StateStandby   State = 200
	StateReady     State = 300
	StateEmergency State = 400
	StateFailure   State = 500
	StateShutdown  State = 600
	StateUnknown   State = 700
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStandby:
		return "standby"
	case StateReady:
		return "ready"
	case StateEmergency:
		return "emergency"
	case StateFailure:
		return "failure"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
