package settlement

import (
	"encoding/json"
	"fmt"

	"github.com/kivo-app/kivo/internal/domain"
)

// Event is the settlement payload: the full transaction snapshot at
// publish time. Consumers treat the snapshot as a hint only and re-read the
// record by id; the store is the source of truth.
type Event struct {
	Transaction domain.Transaction `json:"transaction"`
}

// NewEvent wraps a transaction snapshot.
func NewEvent(tx domain.Transaction) Event {
	return Event{Transaction: tx}
}

// Encode serializes the event for the wire.
func (e Event) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("settlement: encoding event %s: %w", e.Transaction.ID, err)
	}
	return b, nil
}

// DecodeEvent parses a wire payload.
func DecodeEvent(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("settlement: decoding event: %w", err)
	}
	return ev, nil
}
