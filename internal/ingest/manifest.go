package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["documents"],
  "additionalProperties": false,
  "properties": {
    "documents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path"],
        "additionalProperties": false,
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Manifest lists the documents of a batch in processing order.
type Manifest struct {
	Documents []ManifestEntry `json:"documents"`
}

type ManifestEntry struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

var compileManifestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest.json", strings.NewReader(manifestSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("manifest.json")
})

// ParseManifest validates data against the manifest schema and decodes it.
func ParseManifest(data []byte) (Manifest, error) {
	schema, err := compileManifestSchema()
	if err != nil {
		return Manifest{}, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Manifest{}, common.InvalidInput(common.CodeInvalidManifest, "manifest is not valid JSON", err)
	}
	if err := schema.Validate(v); err != nil {
		return Manifest{}, common.InvalidInput(common.CodeInvalidManifest, "manifest does not match schema", err)
	}
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads a manifest file and the documents it lists, in listed order.
// Relative paths are resolved against the manifest's directory.
func LoadManifest(path string) ([]extract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	docs := make([]extract.Document, 0, len(m.Documents))
	for _, e := range m.Documents {
		p := e.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		name := e.Name
		if name == "" {
			name = filepath.Base(p)
		}
		doc, err := ReadDocument(p, name)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %q: %w", e.Path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
