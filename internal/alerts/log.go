package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender sends alerts to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the event
func (s *LogSender) Send(ctx context.Context, event *OrderEvent) error {
	fields := logrus.Fields{
		"action":   event.Action,
		"wallet":   shorten(event.Wallet),
		"order_id": shorten(event.OrderID),
	}
	if event.Action == ActionPlaced {
		fields["token"] = shorten(event.TokenID)
		fields["side"] = event.Side
		fields["price"] = event.Price
		fields["size"] = event.Size
		fields["notional_usd"] = event.NotionalUSD()
		fields["status"] = event.Status
	}
	s.log.WithFields(fields).Info("Order event")
	return nil
}
