package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/lychee-technology/formlogic"
	"github.com/lychee-technology/formlogic/factory"
	"github.com/lychee-technology/formlogic/internal"
)

type evaluateOptions struct {
	formFile        string
	submissionFile  string
	visibilityOnly  bool
	prefixQuestions bool
	extraPasses     int
}

func runEvaluate(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintln(out, "Usage: formlogic-tools evaluate [options]")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Options:")
		flags.PrintDefaults()
	}

	opts := evaluateOptions{}
	flags.StringVar(&opts.formFile, "form", "", "Path to the form definition JSON file (required)")
	flags.StringVar(&opts.submissionFile, "submission", "", "Path to the submission JSON file (required)")
	flags.BoolVar(&opts.visibilityOnly, "visibility-only", false, "Only resolve field visibility")
	flags.BoolVar(&opts.prefixQuestions, "prefix-questions", true, "Decorate projected questions with provenance prefixes")
	flags.IntVar(&opts.extraPasses, "extra-passes", formlogic.DefaultConfig().Solver.ExtraPasses, "Solver passes allowed beyond the field count")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.formFile == "" || opts.submissionFile == "" {
		return fmt.Errorf("-form and -submission are required")
	}

	return evaluate(opts, out)
}

func evaluate(opts evaluateOptions, out io.Writer) error {
	form, err := loadFormFile(opts.formFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.submissionFile)
	if err != nil {
		return fmt.Errorf("read submission file: %w", err)
	}
	var submission formlogic.Submission
	if err := json.Unmarshal(data, &submission); err != nil {
		return fmt.Errorf("parse submission file: %w", err)
	}

	config := formlogic.DefaultConfig()
	config.Projection.PrefixQuestions = opts.prefixQuestions
	config.Solver.ExtraPasses = opts.extraPasses

	engine, err := factory.NewEngineWithConfig(config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var result any
	if opts.visibilityOnly {
		result, err = engine.ResolveVisibility(ctx, form, submission.Responses)
	} else {
		result, err = engine.Evaluate(ctx, form, &submission)
	}
	if err != nil {
		if rejection, ok := formlogic.GetRejectionError(err); ok {
			if encErr := writeIndented(out, rejection); encErr != nil {
				return encErr
			}
		}
		return err
	}

	return writeIndented(out, result)
}

func runValidateForm(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("validate-form", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintln(out, "Usage: formlogic-tools validate-form [options] <file|dir>...")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Options:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.NArg() == 0 {
		return fmt.Errorf("at least one form file or directory is required")
	}

	files, err := collectFormFiles(flags.Args())
	if err != nil {
		return err
	}

	var failed int
	for _, file := range files {
		form, err := loadFormFile(file)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (form %s, %d fields, %d rules)\n", file, form.ID, len(form.Fields), len(form.Logic))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d form definitions are invalid", failed, len(files))
	}
	return nil
}

// loadFormFile reads and decodes one form definition
func loadFormFile(path string) (*formlogic.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	return internal.DecodeFormDefinition(path, data)
}

// collectFormFiles expands directories into their *.json files, sorted
func collectFormFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", p, err)
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func writeIndented(out io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}
