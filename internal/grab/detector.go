// Package grab turns a polled grab signal into start and end edges.
package grab

// Edge is the transition observed on a tick.
type Edge int

const (
	None Edge = iota
	Start
	End
)

func (e Edge) String() string {
	switch e {
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return "none"
	}
}

// Detector remembers the previous tick's signal. The zero value is ready to use.
type Detector struct {
	previous bool
}

// Detect feeds the current signal and reports the edge, if any.
func (d *Detector) Detect(signal bool) Edge {
	prev := d.previous
	d.previous = signal
	switch {
	case !prev && signal:
		return Start
	case prev && !signal:
		return End
	default:
		return None
	}
}

// Reset forgets the previous signal.
func (d *Detector) Reset() {
	d.previous = false
}
