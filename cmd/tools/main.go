package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	case "export-jsonschema":
		if err := runExportJSONSchema(os.Args[2:]); err != nil {
			sugar.Fatalf("export-jsonschema: %v", err)
		}
	case "validate-components":
		if err := runValidateComponents(os.Args[2:]); err != nil {
			sugar.Fatalf("validate-components: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: pagekit-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  init-db               Create the projects and component design tables")
	logger.Info("  export-jsonschema     Write the JSON Schema of each component's value set")
	logger.Info("  validate-components   Load and self-check every component schema in a directory")
}
