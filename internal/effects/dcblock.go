package effects

// DefaultDCAlpha is the pole of the DC blocker.
const DefaultDCAlpha = 0.995

// DCBlocker removes DC offset: y[n] = x[n] - x[n-1] + alpha*y[n-1].
type DCBlocker struct {
	alpha          float64
	xl, xr, yl, yr float64
}

func NewDCBlocker(alpha float64) *DCBlocker {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultDCAlpha
	}
	return &DCBlocker{alpha: alpha}
}

func (d *DCBlocker) Process(l, r float64) (float64, float64) {
	yl := l - d.xl + d.alpha*d.yl
	yr := r - d.xr + d.alpha*d.yr
	d.xl, d.xr, d.yl, d.yr = l, r, yl, yr
	return yl, yr
}

func (d *DCBlocker) Reset() {
	d.xl, d.xr, d.yl, d.yr = 0, 0, 0, 0
}
