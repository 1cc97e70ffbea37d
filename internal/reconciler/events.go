package reconciler

import (
	"encoding/json"
	"errors"
)

// Event kinds the reconciler understands. Anything else is acknowledged and
// dropped so the processor does not retry forever.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
	EventTransferCreated  = "transfer.created"
	EventTransferPaid     = "transfer.paid"
	EventTransferFailed   = "transfer.failed"
	EventAccountUpdated   = "account.updated"
)

// Event is the processor's webhook envelope. Only the object payload is
// interpreted, and only after the signature checked out.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func unmarshalObject(data []byte, out any) error {
	if len(data) == 0 {
		return errors.New("event has no object payload")
	}
	return json.Unmarshal(data, out)
}

// paymentIntentObject is the slice of a payment_intent payload the
// reconciler uses. Metadata carries job_id and poster_id written at charge
// time; they are the only way to attach an orphaned event to the ledger.
type paymentIntentObject struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Status   string            `json:"status"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

type chargeObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Refunded      bool              `json:"refunded"`
	AmountRefund  int64             `json:"amount_refunded"`
	Metadata      map[string]string `json:"metadata"`
}

type transferObject struct {
	ID          string            `json:"id"`
	Amount      int64             `json:"amount"`
	Destination string            `json:"destination"`
	Metadata    map[string]string `json:"metadata"`
}

type accountObject struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	Requirements   struct {
		CurrentlyDue []string `json:"currently_due"`
	} `json:"requirements"`
}
