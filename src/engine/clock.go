package engine

// SimClock is the venue's monotonic simulated clock. It advances only from
// incoming data timestamps and never reads wall time.
type SimClock struct {
	nowNs int64
}

func NewSimClock() *SimClock {
	return &SimClock{}
}

// SetTime advances the clock to tsNs. Out-of-order timestamps do not move
// the clock backwards.
func (c *SimClock) SetTime(tsNs int64) {
	if tsNs > c.nowNs {
		c.nowNs = tsNs
	}
}

func (c *SimClock) TimeNs() int64 {
	return c.nowNs
}

func (c *SimClock) Reset() {
	c.nowNs = 0
}
