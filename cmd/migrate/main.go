// Command migrate rewrites a curriculum document into the current format:
// bare-string subtopics become objects with an empty resource list and every
// subtopic gets a stable id.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/platform/config"
	"github.com/p-n-ai/learn-tracker/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	cfg.Log.Format = "text"
	slog.SetDefault(logging.New(os.Stderr, cfg.Log))

	if err := run(os.Args[1:], cfg.Data.CurriculumPath, os.Stdout); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

// run parses args and migrates the curriculum. defaultPath is used when
// -file is not given.
func run(args []string, defaultPath string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("file", defaultPath, "curriculum document to migrate")
	dryRun := fs.Bool("dry-run", false, "report changes without writing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := curriculum.NewStore(*path)
	c, err := store.Load()
	if err != nil {
		return err
	}

	changed := curriculum.Normalize(c)
	totals := c.Totals()
	slog.Info("curriculum normalized",
		"path", *path,
		"subtopics", totals.Subtopics,
		"changed", changed,
		"dry_run", *dryRun,
	)

	if changed == 0 || *dryRun {
		fmt.Fprintf(out, "%d of %d subtopics need migration\n", changed, totals.Subtopics)
		return nil
	}
	if err := store.Save(c); err != nil {
		return err
	}
	fmt.Fprintf(out, "migrated %d of %d subtopics in %s\n", changed, totals.Subtopics, *path)
	return nil
}
