package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"dicomsplit/pkg/config"
	"dicomsplit/pkg/split"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "dicomsplit.yaml", "YAML configuration file (defaults are used if it does not exist)")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	count := flag.Int("n", 0, "Number of output volumes (mutually exclusive with SOP/Series pairs)")
	axis := flag.String("axis", "columns", "Axis to split along: rows (0) or columns (1)")
	origin := flag.Bool("origin", false, "Recompute Image Position (Patient) for every piece")
	previewDir := flag.String("preview-dir", "", "Write a JPEG preview of every piece under this directory")
	continueOnError := flag.Bool("continue", false, "Keep splitting the remaining files after a failure")
	quiet := flag.Bool("quiet", false, "Only log warnings and errors")
	flag.Usage = usage
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the file
	countSet := false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			countSet = true
			cfg.Split.Count = *count
		case "axis":
			cfg.Split.Axis = *axis
		case "origin":
			cfg.Split.RecomputeOrigin = *origin
		case "preview-dir":
			cfg.Preview.Enabled = *previewDir != ""
			cfg.Preview.Dir = *previewDir
		case "continue":
			cfg.Output.ContinueOnError = *continueOnError
		case "quiet":
			cfg.Output.Verbose = !*quiet
		}
	})
	if pairs := flag.Args()[1:]; len(pairs) > 0 {
		cfg.Split.Pairs = pairs
		if !countSet {
			cfg.Split.Count = 0
		}
	} else if countSet {
		cfg.Split.Pairs = nil
	}

	plan, err := cfg.Plan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	splitter, err := split.NewSplitter(plan, cfg.Options(log.Default()))
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}

	if cfg.Output.Verbose {
		fmt.Printf("Splitting %s (%s)\n", dir, plan)
	}
	startTime := time.Now()
	report, err := splitter.Directory(dir)
	if report != nil {
		printReport(report, cfg.Output.Verbose, time.Since(startTime))
	}
	if err != nil {
		if errors.Is(err, split.ErrConfig) {
			os.Exit(2)
		}
		log.Fatalf("Split failed: %v", err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] DICOM_DIRECTORY [SOP_UID/SERIES_UID ...]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, "Splits every slice of DICOM_DIRECTORY into N pieces, written to")
	fmt.Fprintln(out, "DICOM_DIRECTORY.1 .. DICOM_DIRECTORY.N. Give either -n or one")
	fmt.Fprintln(out, "SOP/Series UID pair per output volume, not both.")
	fmt.Fprintln(out)
	flag.PrintDefaults()
}

func printReport(report *split.Report, verbose bool, elapsed time.Duration) {
	if verbose {
		fmt.Printf("\nSplit %d files in %.2f seconds\n", len(report.Files), elapsed.Seconds())
		fmt.Println("Output directories:")
		for _, dest := range report.Destinations {
			fmt.Printf("- %s\n", dest)
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Printf("%d warnings (see log)\n", len(report.Warnings))
	}
	if len(report.Failed) > 0 {
		fmt.Printf("%d files failed:\n", len(report.Failed))
		for _, f := range report.Failed {
			fmt.Printf("- %s: %s\n", f.Path, f.Error)
		}
	}
}
