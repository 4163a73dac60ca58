package alerts

import (
	"context"
	"time"
)

// Action is what happened to an order
type Action string

const (
	ActionPlaced    Action = "PLACED"
	ActionCancelled Action = "CANCELLED"
)

// OrderEvent describes an order change worth notifying about
type OrderEvent struct {
	Action    Action
	Wallet    string
	TokenID   string
	Side      string
	Price     float64
	Size      float64
	OrderID   string
	Status    string
	Timestamp time.Time
}

// NotionalUSD is the USDC value of the order at its limit price
func (e *OrderEvent) NotionalUSD() float64 {
	return e.Price * e.Size
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, event *OrderEvent) error
}
