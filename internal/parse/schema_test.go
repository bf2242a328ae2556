package parse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRecordJSON(t *testing.T) {
	t.Parallel()

	rec := emptyRecord()
	rec.OrderID = "OD123456789012345678"
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, ValidateRecordJSON(data))
}

func TestValidateRecordJSONRejectsEmptyField(t *testing.T) {
	t.Parallel()

	err := ValidateRecordJSON([]byte(`{
		"order_id": "", "date": "N/A", "price": "N/A",
		"item_name": "N/A", "delivery_address": "N/A", "delivery_state": "N/A"
	}`))
	require.Error(t, err)
}

func TestValidateRecordJSONRejectsMissingField(t *testing.T) {
	t.Parallel()

	err := ValidateRecordJSON([]byte(`{"order_id": "OD123456789012345678"}`))
	require.Error(t, err)
}

func TestValidateRecordJSONRejectsUnknownField(t *testing.T) {
	t.Parallel()

	rec := map[string]string{
		"order_id": "OD123456789012345678", "date": "N/A", "price": "N/A",
		"item_name": "N/A", "delivery_address": "N/A", "delivery_state": "N/A",
		"extra": "nope",
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Error(t, ValidateRecordJSON(data))
}
