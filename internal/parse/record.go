package parse

import (
	"errors"

	"github.com/voeux/invoice-tracker/constants"
)

// Record is the assembled extraction result. Every field is either a
// non-empty extracted value or constants.NotAvailable, never "".
type Record struct {
	OrderID         string `json:"order_id"`
	Date            string `json:"date"`
	Price           string `json:"price"`
	ItemName        string `json:"item_name"`
	DeliveryAddress string `json:"delivery_address"`
	DeliveryState   string `json:"delivery_state"`
}

// Extraction failure reasons. Only these (plus upstream extraction errors
// passed through by callers) ever fail a parse; unresolved non-mandatory
// fields degrade to the sentinel instead.
var (
	// ErrInsufficientText means the recovered text is below the minimum
	// length worth parsing.
	ErrInsufficientText = errors.New("InsufficientText")
	// ErrMissingOrderID means no order-identifier rule validated. The
	// order identifier is the single mandatory field.
	ErrMissingOrderID = errors.New("MissingOrderIdentifier")
)

// emptyRecord returns a Record with every field set to the sentinel.
func emptyRecord() Record {
	na := constants.NotAvailable
	return Record{
		OrderID:         na,
		Date:            na,
		Price:           na,
		ItemName:        na,
		DeliveryAddress: na,
		DeliveryState:   na,
	}
}
