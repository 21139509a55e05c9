// Command marsctl is the external-scripts CLI surface over package mars: it
// is not part of the mining/refining/matching core itself, only a thin
// wrapper gluing adapter/goast, a pattern store, and the core operations
// together for command-line use.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/ff/v3"

	mars "github.com/TvrtkoSternak/MARS"
	"github.com/TvrtkoSternak/MARS/adapter/goast"
	"github.com/TvrtkoSternak/MARS/internal/slogpretty"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: marsctl <mine|refine|match> [flags]")
		os.Exit(2)
	}

	logger := slog.New(slogpretty.DefaultHandler)
	var err error
	switch os.Args[1] {
	case "mine":
		err = runMine(logger, os.Args[2:])
	case "refine":
		err = runRefine(logger, os.Args[2:])
	case "match":
		err = runMatch(logger, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		logger.Error("marsctl failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*mars.Config, error) {
	if path == "" {
		return mars.DefaultConfig(), nil
	}
	return mars.LoadConfig(path)
}

// runMine mines a directory of (original_*, modified_*) source pairs into a
// pattern store. A file "original_foo.go" pairs with "modified_foo.go" in
// the same directory; any original_ file with no modified_ counterpart is
// skipped rather than aborting the batch. The skip is silent: no log line
// is written for it.
func runMine(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("marsctl mine", flag.ExitOnError)
	dir := fs.String("dir", "", "directory containing original_*/modified_* source pairs")
	storePath := fs.String("store", "patterns.store", "pattern store path")
	configPath := fs.String("config", "", "config file path")
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("MARS")); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *dir == "" {
		return fmt.Errorf("mine: -dir is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	pairs, err := findSourcePairs(*dir)
	if err != nil {
		return err
	}

	parser := goast.New(logger)
	creator := mars.NewPatternCreator(cfg.PatternCreatorOptions()...)
	store := mars.NewStorageContext(*storePath)

	ctx := context.Background()
	mined := 0
	for _, pair := range pairs {
		pattern, err := creator.CreateFromSources(ctx, parser, pair.original, pair.modified)
		if err != nil {
			logger.Warn("skipping unminable source pair", slog.String("path", pair.original), slog.Any("err", err))
			continue
		}
		pattern.Name = pair.name
		if err := store.Save(pattern); err != nil {
			return fmt.Errorf("mine: save %s: %w", pair.name, err)
		}
		mined++
	}
	logger.Info("mining complete", slog.Int("count", mined), slog.String("path", *storePath))
	return nil
}

type sourcePair struct {
	name               string
	original, modified string
}

func findSourcePairs(dir string) ([]sourcePair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("mine: read dir %s: %w", dir, err)
	}

	var pairs []sourcePair
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "original_") {
			continue
		}
		suffix := strings.TrimPrefix(e.Name(), "original_")
		modified := filepath.Join(dir, "modified_"+suffix)
		if _, err := os.Stat(modified); err != nil {
			continue
		}
		pairs = append(pairs, sourcePair{
			name:     suffix,
			original: filepath.Join(dir, e.Name()),
			modified: modified,
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	return pairs, nil
}

// runRefine loads every pattern in a store, fuses them down per the
// configured floor and distance cap, and rewrites the store in place.
func runRefine(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("marsctl refine", flag.ExitOnError)
	storePath := fs.String("store", "patterns.store", "pattern store path")
	configPath := fs.String("config", "", "config file path")
	minCount := fs.Int("min-count", 0, "override refiner.minCount")
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("MARS")); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *minCount > 0 {
		cfg.Refiner.MinCount = *minCount
	}

	store := mars.NewStorageContext(*storePath)
	patterns, err := store.Load()
	if err != nil {
		return fmt.Errorf("refine: load: %w", err)
	}
	if len(patterns) == 0 {
		return mars.ErrNoPatterns
	}

	optimiser, err := cfg.Optimiser()
	if err != nil {
		return err
	}
	refiner := mars.NewRefiner(optimiser, logger, cfg.RefinerOptions()...)
	refined := refiner.Refine(patterns)

	if err := store.Rewrite(refined); err != nil {
		return fmt.Errorf("refine: rewrite: %w", err)
	}
	logger.Info("refinement complete", slog.Int("before", len(patterns)), slog.Int("after", len(refined)))
	return nil
}

// runMatch scans a single source file against every pattern in a store and
// emits the results through the configured emitter.
func runMatch(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("marsctl match", flag.ExitOnError)
	storePath := fs.String("store", "patterns.store", "pattern store path")
	source := fs.String("source", "", "source file to scan")
	configPath := fs.String("config", "", "config file path")
	emitterName := fs.String("emitter", "", "override matcher.emitter (readable|xml|count)")
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("MARS")); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *source == "" {
		return fmt.Errorf("match: -source is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *emitterName != "" {
		cfg.Matcher.Emitter = *emitterName
	}

	store := mars.NewStorageContext(*storePath)
	patterns, err := store.Load()
	if err != nil {
		return fmt.Errorf("match: load: %w", err)
	}

	parser := goast.New(logger)
	host, err := parser.Parse(context.Background(), *source)
	if err != nil {
		return fmt.Errorf("match: parse %s: %w", *source, err)
	}

	raw, err := os.ReadFile(*source)
	if err != nil {
		return fmt.Errorf("match: read %s: %w", *source, err)
	}

	emitter, err := cfg.Emitter(string(raw))
	if err != nil {
		return err
	}

	recommender := mars.NewRecommender(patterns, logger)
	for _, m := range recommender.Scan(host) {
		emitter.Emit(m)
	}

	switch e := emitter.(type) {
	case *mars.Readable:
		fmt.Println(e.Merged())
	case *mars.XML:
		os.Stdout.Write(e.Bytes())
	case *mars.Counter:
		fmt.Println(e.Count())
	}
	return nil
}
