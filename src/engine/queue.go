package engine

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Command is a trading instruction enqueued by the client and drained by the
// venue on each Process call.
type Command interface {
	isCommand()
}

type SubmitOrder struct {
	Order *Order
}

type SubmitOrderList struct {
	Orders []*Order
}

type ModifyOrder struct {
	ClientOrderID string
	Quantity      *decimal.Decimal
	Price         *decimal.Decimal
	Trigger       *decimal.Decimal
}

type CancelOrder struct {
	ClientOrderID string
}

func (SubmitOrder) isCommand()     {}
func (SubmitOrderList) isCommand() {}
func (ModifyOrder) isCommand()     {}
func (CancelOrder) isCommand()     {}

// CommandQueue is an unbounded FIFO. Producers may push from request
// goroutines; the single venue driver drains it.
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, cmd)
}

// Drain removes and returns every queued command in FIFO order.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.items
	q.items = nil
	return drained
}

func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
