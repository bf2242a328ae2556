package parse

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) for a
// serialized Record: all six fields present and non-empty strings. The
// sentinel satisfies non-emptiness, so a partial record still validates.
func BuildRecordJSONSchema() map[string]any {
	field := map[string]any{"type": "string", "minLength": 1}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"order_id":         field,
			"date":             field,
			"price":            field,
			"item_name":        field,
			"delivery_address": field,
			"delivery_state":   field,
		},
		"required": []string{
			"order_id", "date", "price", "item_name", "delivery_address", "delivery_state",
		},
	}
}

// ValidateRecordJSON validates a serialized Record against the schema.
func ValidateRecordJSON(data []byte) error {
	b, err := json.Marshal(BuildRecordJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
