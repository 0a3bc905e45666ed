package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"vim-scene-renderer/internal/batch"
	"vim-scene-renderer/internal/config"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	inputDir := flag.String("input", "", "Directory of .vim files (or pass files as arguments)")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	quality := flag.Int("quality", 0, "WebP quality 1-100 (default: 90)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Render only first N files for testing")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		InputDir:  *inputDir,
		OutputDir: *outputDir,
		Quality:   *quality,
		Workers:   *workers,
	})

	files := flag.Args()
	if len(files) == 0 && cfg.InputDir != "" {
		var err error
		files, err = collectModels(cfg.InputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", cfg.InputDir, err)
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files. Pass .vim files or use -input/config.json.")
		os.Exit(1)
	}

	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}

	// Ctrl-C cancels in-flight loads
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Rendering %d model(s) with %d workers -> %s\n", len(files), cfg.Workers, cfg.OutputDir)
	start := time.Now()
	results := batch.Run(ctx, cfg, files)

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		} else if r.Error != "" {
			fmt.Fprintf(os.Stderr, "  FAIL %s: %s\n", r.File, r.Error)
		}
	}
	fmt.Printf("Done: %d/%d in %.1fs\n", ok, len(results), time.Since(start).Seconds())

	manifest := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifest, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
		os.Exit(1)
	}

	if ok < len(results) {
		os.Exit(1)
	}
}

func collectModels(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".vim") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
