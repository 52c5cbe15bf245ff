package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiSpec []byte

const responseSchema = "StartConversationResponse"

var loadSchema = sync.OnceValues(func() (*openapi3.Schema, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("load start endpoint contract: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid start endpoint contract: %w", err)
	}
	ref, ok := doc.Components.Schemas[responseSchema]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("start endpoint contract has no %s schema", responseSchema)
	}
	return ref.Value, nil
})

// validateResponse checks a start response body against the embedded contract.
func validateResponse(body []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandshake, err)
	}
	if err := schema.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandshake, err)
	}
	return nil
}
