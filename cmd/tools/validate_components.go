package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
)

func runValidateComponents(args []string) error {
	flags := flag.NewFlagSet("validate-components", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: pagekit-tools validate-components [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	schemaDir := flags.String("schema-dir", getenvDefault("SCHEMA_DIR", ""), "Directory containing component schema files (required)")

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
		return err
	}

	for _, name := range registry.ListComponents() {
		schema, err := registry.GetComponent(name)
		if err != nil {
			return err
		}
		if err := checkDefaults(schema); err != nil {
			return err
		}
		fmt.Printf("ok  %-20s fields: %d, presets: %d\n", name, len(schema.Fields), len(schema.Presets))
	}
	return nil
}

// checkDefaults verifies that the declared defaults satisfy the component's
// own JSON Schema, so a fresh editor session never starts from invalid data.
func checkDefaults(schema *pagekit.ComponentSchema) error {
	defaults := schema.Defaults()
	if len(defaults) == 0 {
		return nil
	}
	if err := schema.ValidateDocument(defaults); err != nil {
		return fmt.Errorf("component %s: defaults do not match schema: %w", schema.Name, err)
	}
	return nil
}
