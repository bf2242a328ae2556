package parse

import (
	"log/slog"

	"github.com/voeux/invoice-tracker/constants"
)

// minTextLength is the smallest recovered text worth trying to parse.
const minTextLength = 10

// Parser turns recovered invoice text into a Record. It is stateless:
// identical text and mode always produce an identical record, and nothing
// is carried between calls.
type Parser struct {
	log *slog.Logger
}

func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{log: log}
}

// Parse extracts the six invoice fields from text recovered by the given
// source. Unresolved non-mandatory fields become the sentinel; the order
// identifier is the single hard acceptance gate.
func (p *Parser) Parse(text string, mode constants.SourceMode) (Record, error) {
	if len(text) < minTextLength {
		return Record{}, ErrInsufficientText
	}

	var rec Record
	switch mode {
	case constants.ModeLayout:
		rec = parseLayout(text)
	default:
		rec = parseOCR(Normalize(text, mode))
	}

	if rec.OrderID == constants.NotAvailable {
		p.log.Warn("no order identifier recognized", "mode", mode, "text_len", len(text))
		return Record{}, ErrMissingOrderID
	}

	p.log.Debug("invoice fields extracted",
		"mode", mode,
		"order_id", rec.OrderID,
		"date", rec.Date,
		"price", rec.Price,
		"state", rec.DeliveryState,
	)
	return rec, nil
}

// parseOCR runs the OCR-mode rule sets over whitespace-collapsed text.
func parseOCR(text string) Record {
	rec := emptyRecord()

	if id, ok := extractOCROrderID(text); ok {
		rec.OrderID = id
	}
	if d, ok := extractOCRDate(text); ok {
		rec.Date = d
	}
	if price, ok := extractOCRPrice(text); ok {
		rec.Price = price
	}
	if item, ok := extractOCRItem(text); ok {
		rec.ItemName = item
	}
	addr, context, ok := extractOCRAddress(text)
	if ok {
		rec.DeliveryAddress = addr
	}
	if st, found := ocrStateResolver.Resolve(context, text); found {
		rec.DeliveryState = st
	}
	return rec
}
