package elements

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

const (
	portfolioSchemaName = "portfolio.json"
	optionsSchemaName   = "options.json"
)

// PortfolioValidator checks portfolios and widget options before they reach
// the runtime.
type PortfolioValidator interface {
	ValidatePortfolio(q PortfolioQuery) error
	ValidateOptions(opts *WidgetOptions) error
}

// JSONSchemaValidator validates payloads against the embedded schemas and then
// applies the checks a schema cannot express.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

var defaultValidator = NewJSONSchemaValidator()

// ValidatePortfolio validates q with the shared validator.
func ValidatePortfolio(q PortfolioQuery) error {
	return defaultValidator.ValidatePortfolio(q)
}

// ValidateOptions validates opts with the shared validator.
func ValidateOptions(opts *WidgetOptions) error {
	return defaultValidator.ValidateOptions(opts)
}

// ValidatePortfolio enforces shape, one encoding per query and unique
// (type, id) pairs.
func (v *JSONSchemaValidator) ValidatePortfolio(q PortfolioQuery) error {
	if err := v.validate(portfolioSchemaName, q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPortfolio, err)
	}
	seen := make(map[string]int, len(q.IDs))
	var weighted, allocated int
	for i, entry := range q.IDs {
		if prev, ok := seen[entry.Key()]; ok {
			return fmt.Errorf("%w: ids[%d] duplicates ids[%d] (%s)", ErrInvalidPortfolio, i, prev, entry.Key())
		}
		seen[entry.Key()] = i
		if entry.Weight != nil {
			weighted++
		}
		if entry.Allocation != nil {
			allocated++
		}
	}
	if weighted > 0 && allocated > 0 {
		return fmt.Errorf("%w: entries mix weight and allocation encodings", ErrInvalidPortfolio)
	}
	return nil
}

// ValidateOptions checks the option bag shape. Nil options are valid.
func (v *JSONSchemaValidator) ValidateOptions(opts *WidgetOptions) error {
	if opts == nil {
		return nil
	}
	if err := v.validate(optionsSchemaName, opts); err != nil {
		return fmt.Errorf("elements: invalid widget options: %w", err)
	}
	return nil
}

func (v *JSONSchemaValidator) validate(name string, value any) error {
	schema, err := v.schemaFor(name)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("elements: marshal %s payload: %w", name, err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("elements: normalize %s payload: %w", name, err)
	}
	if err := schema.Validate(payload); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return errors.New(describeValidation(verr))
		}
		return err
	}
	return nil
}

func describeValidation(verr *jsonschema.ValidationError) string {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, leaf.Message)
}

func (v *JSONSchemaValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := embeddedSchemas.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("elements: read schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("elements: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("elements: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
