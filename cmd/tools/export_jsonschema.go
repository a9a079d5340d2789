package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
)

func runExportJSONSchema(args []string) error {
	flags := flag.NewFlagSet("export-jsonschema", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: pagekit-tools export-jsonschema [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	schemaDir := flags.String("schema-dir", getenvDefault("SCHEMA_DIR", ""), "Directory containing component schema files (required)")
	component := flags.String("component", "", "Export a single component (defaults to all)")
	outDir := flags.String("out", "", "Directory to write <component>.schema.json files (defaults to stdout)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *schemaDir == "" {
		return fmt.Errorf("-schema-dir is required")
	}

	registry, err := internal.NewFileComponentRegistry(*schemaDir)
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	names := registry.ListComponents()
	if *component != "" {
		names = []string{*component}
	}

	for _, name := range names {
		schema, err := registry.GetComponent(name)
		if err != nil {
			return err
		}
		encoded, err := encodeJSONSchema(schema)
		if err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}

		if *outDir == "" {
			if err := writeLine(os.Stdout, encoded); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		path := filepath.Join(*outDir, name+".schema.json")
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		fmt.Printf("JSON schema written, component: %s, output: %s\n", name, path)
	}

	return nil
}

// encodeJSONSchema renders the component's value-set schema as indented JSON
func encodeJSONSchema(schema *pagekit.ComponentSchema) ([]byte, error) {
	doc, err := schema.JSONSchema()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func writeLine(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n"))
	return err
}
