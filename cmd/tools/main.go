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
	case "evaluate":
		if err := runEvaluate(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("evaluate: %v", err)
		}
	case "validate-form":
		if err := runValidateForm(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("validate-form: %v", err)
		}
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	case "publish-form":
		if err := runPublishForm(os.Args[2:]); err != nil {
			sugar.Fatalf("publish-form: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: formlogic-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  evaluate        Evaluate a submission file against a form definition")
	logger.Info("  validate-form   Check form definition files against the definition schema")
	logger.Info("  init-db         Create the form definitions table and load definitions into it")
	logger.Info("  publish-form    Upload form definition files to an S3 bucket")
}
