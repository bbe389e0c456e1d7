package persistence

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/gridcity/internal/engine"
)

//go:embed record.schema.json
var recordSchemaJSON string

var (
	recordSchemaOnce sync.Once
	recordSchema     *jsonschema.Schema
	recordSchemaErr  error
)

func compiledRecordSchema() (*jsonschema.Schema, error) {
	recordSchemaOnce.Do(func() {
		recordSchema, recordSchemaErr = jsonschema.CompileString("record.schema.json", recordSchemaJSON)
	})
	return recordSchema, recordSchemaErr
}

// ValidateRecord checks a record against the city record schema. The record
// may hold typed Go values; it is validated in its JSON form.
func ValidateRecord(rec engine.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = validateJSON(body)
	return err
}

// DecodeRecord parses and validates a JSON record.
func DecodeRecord(body []byte) (engine.Record, error) {
	doc, err := validateJSON(body)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record is %T, want object", doc)
	}
	return engine.Record(obj), nil
}

func validateJSON(body []byte) (any, error) {
	schema, err := compiledRecordSchema()
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return doc, nil
}
