package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	menuSchemaOnce sync.Once
	menuSchema     *jsonschema.Schema
	menuSchemaErr  error
)

// compiledMenuSchema compiles BuildMenuJSONSchema on first use; the schema is
// fixed, so every upload shares the compiled form.
func compiledMenuSchema() (*jsonschema.Schema, error) {
	menuSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildMenuJSONSchema())
		if err != nil {
			menuSchemaErr = fmt.Errorf("marshal menu schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("menu.schema.json", bytes.NewReader(b)); err != nil {
			menuSchemaErr = fmt.Errorf("add menu schema: %w", err)
			return
		}
		menuSchema, menuSchemaErr = compiler.Compile("menu.schema.json")
	})
	return menuSchema, menuSchemaErr
}

// ValidateMenu checks a structured response against the menu schema before
// any defaulting happens downstream.
func ValidateMenu(data []byte) error {
	schema, err := compiledMenuSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal structured menu: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("menu does not match schema: %w", err)
	}
	return nil
}
