package metrics

import "github.com/san-kum/takeoff/internal/sim"

// AlphaMargin is the fraction of nodes whose angle of attack stays at or
// below the limit. While rotating on the gear alpha equals pitch.
type AlphaMargin struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewAlphaMargin(threshold float64) *AlphaMargin {
	return &AlphaMargin{
		name:      "alpha_margin",
		threshold: threshold,
	}
}

func (a *AlphaMargin) Name() string {
	return a.name
}

func (a *AlphaMargin) Observe(s *sim.Snapshot) {
	alpha, ok := s.Values["alpha"]
	if !ok {
		if alpha, ok = s.Values["theta"]; !ok {
			return
		}
	}
	a.samples++
	if alpha > a.threshold {
		a.violations++
	}
}

func (a *AlphaMargin) Value() float64 {
	if a.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(a.violations)/float64(a.samples)
}

func (a *AlphaMargin) Reset() {
	a.violations = 0
	a.samples = 0
}
