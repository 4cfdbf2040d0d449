package devapi

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var contractDocument []byte

// contract checks incoming requests against the embedded OpenAPI document.
type contract struct {
	doc *openapi3.T
}

func loadContract(ctx context.Context) (*contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractDocument)
	if err != nil {
		return nil, fmt.Errorf("load api contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate api contract: %w", err)
	}
	return &contract{doc: doc}, nil
}

// validate checks r against the operation registered for path. The request
// body is left readable for the handler.
func (c *contract) validate(r *http.Request, path string) error {
	item := c.doc.Paths.Value(path)
	if item == nil {
		return fmt.Errorf("%w: no contract for %s", ErrBadRequest, path)
	}
	op := item.GetOperation(r.Method)
	if op == nil {
		return fmt.Errorf("%w: no contract for %s %s", ErrBadRequest, r.Method, path)
	}
	input := &openapi3filter.RequestValidationInput{
		Request: r,
		Route: &routers.Route{
			Spec:      c.doc,
			Path:      path,
			PathItem:  item,
			Method:    r.Method,
			Operation: op,
		},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
