package alert

import (
	"context"
	"fmt"

	"github.com/avdeenkov/farewatch/internal/kafka"
)

// Notifier delivers fare-drop notifications. Delivery is stdout for now; a
// mail or messenger transport plugs in behind the same method.
type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(ctx context.Context, event kafka.FareDropEvent) error {
	fmt.Printf("fare drop %s-%s on %s (%s): now %.2f, change %.2f\n",
		event.Origin, event.Destination, event.Date, event.FlightType, event.Price, event.PriceChange)
	return nil
}
