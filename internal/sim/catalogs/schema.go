package catalogs

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://idlekingdom.dev/schemas/"

type validator struct {
	byTable map[string]*jsonschema.Schema
}

// newValidator compiles one schema per content table; defs.schema.json is
// shared through $ref.
func newValidator() (*validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	files, err := fs.Glob(schemaFS, "schemas/*.schema.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		raw, err := schemaFS.ReadFile(f)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+path.Base(f), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(f), err)
		}
	}

	v := &validator{byTable: map[string]*jsonschema.Schema{}}
	for _, f := range files {
		name := path.Base(f)
		if name == "defs.schema.json" {
			continue
		}
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		v.byTable[strings.TrimSuffix(name, ".schema.json")+".json"] = s
	}
	return v, nil
}

func (v *validator) validate(table string, raw []byte) error {
	s, ok := v.byTable[table]
	if !ok {
		return fmt.Errorf("no schema for %s", table)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
