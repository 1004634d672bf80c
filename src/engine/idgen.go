package engine

import "fmt"

// IDGenerator mints venue order ids, venue position ids and execution ids.
// Order and position counters are per instrument; the execution counter is
// global. Instrument index is the 1-based order the instrument was added to
// the venue in, which keeps identifiers stable across replays.
type IDGenerator struct {
	instrumentIndex map[string]int
	orderCount      map[string]int
	positionCount   map[string]int
	execCount       int
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		instrumentIndex: make(map[string]int),
		orderCount:      make(map[string]int),
		positionCount:   make(map[string]int),
	}
}

// RegisterInstrument assigns the next instrument index. Registering the same
// instrument twice keeps its original index.
func (g *IDGenerator) RegisterInstrument(instrumentID string) {
	if _, ok := g.instrumentIndex[instrumentID]; ok {
		return
	}
	g.instrumentIndex[instrumentID] = len(g.instrumentIndex) + 1
}

func (g *IDGenerator) VenueOrderID(instrumentID string) string {
	idx := g.mustIndex(instrumentID)
	g.orderCount[instrumentID]++
	return fmt.Sprintf("%d-%03d", idx, g.orderCount[instrumentID])
}

func (g *IDGenerator) VenuePositionID(instrumentID string) string {
	idx := g.mustIndex(instrumentID)
	g.positionCount[instrumentID]++
	return fmt.Sprintf("%d-%03d", idx, g.positionCount[instrumentID])
}

func (g *IDGenerator) ExecutionID() string {
	g.execCount++
	return fmt.Sprintf("%d", g.execCount)
}

// Reset zeroes every counter but keeps instrument registrations.
func (g *IDGenerator) Reset() {
	g.orderCount = make(map[string]int)
	g.positionCount = make(map[string]int)
	g.execCount = 0
}

func (g *IDGenerator) mustIndex(instrumentID string) int {
	idx, ok := g.instrumentIndex[instrumentID]
	if !ok {
		panic(fmt.Sprintf("id generator: unregistered instrument %s", instrumentID))
	}
	return idx
}
