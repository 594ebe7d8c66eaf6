package transport

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseEnvelopeSchema = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": { "type": "integer" },
    "result": {},
    "command": {},
    "duration": { "type": "integer" }
  },
  "additionalProperties": true
}`

var (
	schemaOnce    sync.Once
	schemaErr     error
	compiledSchema *jsonschema.Schema
)

func compiledResponseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("panel_response.json", responseEnvelopeSchema)
	})
	return compiledSchema, schemaErr
}

// validateResponseFrame rejects a decoded response envelope whose shape
// does not match the panel response contract, ahead of handing it to the
// broker's Resolve.
func validateResponseFrame(payload any) error {
	schema, err := compiledResponseSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("invalid response frame: %w", err)
	}
	return nil
}
