package sniff

// State is the lifecycle position of one sniff.
type State int

const (
	Idle State = iota
	Loading
	Sniffing
	Succeeded
	TimedOutWithCandidate
	TimedOutEmpty
	Failed
	Cancelled
	Terminated
)

var stateNames = [...]string{
	Idle:                  "idle",
	Loading:               "loading",
	Sniffing:              "sniffing",
	Succeeded:             "succeeded",
	TimedOutWithCandidate: "timed-out-with-candidate",
	TimedOutEmpty:         "timed-out-empty",
	Failed:                "failed",
	Cancelled:             "cancelled",
	Terminated:            "terminated",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Final reports whether s is an outcome from which only Terminated follows.
func (s State) Final() bool {
	return s >= Succeeded && s < Terminated
}
