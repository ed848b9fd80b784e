package measurement

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCollection marks input that is not a sequence of records.
var ErrInvalidCollection = errors.New("measurement: record collection must be a JSON array")

//go:embed schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func recordSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", strings.NewReader(schemaSource)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("record.json")
	})
	return schemaCompiled, schemaErr
}

// Validate checks a single record document against the record schema.
func Validate(raw []byte) error {
	schema, err := recordSchema()
	if err != nil {
		return fmt.Errorf("compile record schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	return nil
}

// ParseRecord validates and decodes one record document.
func ParseRecord(raw []byte) (Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Record{}, fmt.Errorf("empty record document")
	}
	if !gjson.ValidBytes(raw) {
		return Record{}, fmt.Errorf("record is not valid json")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return Record{}, fmt.Errorf("record must be a json object")
	}
	if err := Validate(raw); err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// ParseCollection decodes a record collection. Accepted shapes are a bare
// array or an object carrying the array under "data".
func ParseCollection(raw []byte) ([]Record, error) {
	items, err := collectionItems(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(items))
	for idx, item := range items {
		rec, err := ParseRecord([]byte(item.Raw))
		if err != nil {
			return nil, fmt.Errorf("record #%d: %w", idx+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func collectionItems(raw []byte) ([]gjson.Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, ErrInvalidCollection
	}
	parsed := gjson.ParseBytes(raw)
	if parsed.IsObject() {
		data := parsed.Get("data")
		if !data.Exists() || !data.IsArray() {
			return nil, ErrInvalidCollection
		}
		parsed = data
	}
	if !parsed.IsArray() {
		return nil, ErrInvalidCollection
	}
	return parsed.Array(), nil
}

// ParseDocument accepts either a single record object or a collection.
func ParseDocument(raw []byte) ([]Record, error) {
	raw = bytes.TrimSpace(raw)
	if gjson.ValidBytes(raw) {
		parsed := gjson.ParseBytes(raw)
		if parsed.IsObject() && !parsed.Get("data").Exists() {
			rec, err := ParseRecord(raw)
			if err != nil {
				return nil, err
			}
			return []Record{rec}, nil
		}
	}
	return ParseCollection(raw)
}

// DecodeYAML reads one record or a list of records from YAML. The document
// is normalised to JSON so it passes through the same validation.
func DecodeYAML(raw []byte) ([]Record, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("empty yaml document")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return ParseDocument(data)
}
