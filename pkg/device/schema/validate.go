package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/urmzd/airsync/pkg/device"
)

// commandSchema describes the body accepted by POST /api/commands.
const commandSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["device_id", "power", "mode"],
	"properties": {
		"device_id": {"type": "string", "minLength": 1},
		"power": {"type": "boolean"},
		"mode": {"type": "string", "enum": ["manual"]}
	},
	"additionalProperties": false
}`

// Validator checks payloads against a compiled JSON Schema document.
type Validator struct {
	schema *jsonschema.Schema
}

// NewCommandValidator compiles the command schema.
func NewCommandValidator() (*Validator, error) {
	return compile("command.json", commandSchema)
}

func compile(name, doc string) (*Validator, error) {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// ValidateCommand validates the wire form of cmd. Failures wrap device.ErrValidation.
func (v *Validator) ValidateCommand(cmd device.Command) error {
	return v.Validate(cmd)
}

// Validate validates any JSON-encodable value against the schema.
func (v *Validator) Validate(payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}

	// The compiler expects decoded JSON values, not Go structs.
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}

	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}
	return nil
}
