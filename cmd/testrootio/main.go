// Command testrootio fills a histogram with random samples, writes a tree
// of events to a file, reads it back and checks every value.
//
// It exits 0 on success and 1 on the first failed check or I/O error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/internal/smoke"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("testrootio", flag.ContinueOnError)
	var (
		path        = fs.String("file", smoke.DefaultFile, "container file to write and read")
		events      = fs.Int("events", 10, "number of events")
		particles   = fs.Int("particles", 10, "particles per event")
		compression = fs.Int("compression", hepio.CompressionDefault, "compression settings (algorithm*100 + level)")
		keep        = fs.Bool("keep", false, "keep the file after a successful run")
		verbose     = fs.Bool("v", false, "log file and tree operations")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := []hepio.Option{hepio.WithCompression(*compression)}
	if *verbose {
		opts = append(opts, hepio.WithLogger(hepio.NewTextLogger(slog.LevelDebug)))
	}

	if err := smoke.Run(context.Background(), *path, *events, *particles, opts...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !*keep {
		_ = os.Remove(*path)
	}
	fmt.Printf("testrootio OK: %d events x %d particles\n", *events, *particles)
	return 0
}
