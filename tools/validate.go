package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// compiledSchema validates tool arguments against the tool's declared
// input schema, so individual handlers never re-check presence ad hoc.
type compiledSchema struct {
	schema *gojsonschema.Schema
}

func compileSchema(inputSchema any) (*compiledSchema, error) {
	if inputSchema == nil {
		return &compiledSchema{}, nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(inputSchema))
	if err != nil {
		return nil, err
	}
	return &compiledSchema{schema: schema}, nil
}

func (c *compiledSchema) validate(args json.RawMessage) error {
	if c.schema == nil {
		return nil
	}
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}
