package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"sentimentd/internal/modkit"
	"sentimentd/internal/platform/config"
	"sentimentd/internal/platform/logger"
	"sentimentd/internal/platform/store"
	classifymod "sentimentd/internal/services/api/classify/module"
	"sentimentd/internal/services/batch"
)

func main() {
	var (
		inPath   = flag.String("in", "-", "input file, - for stdin")
		outPath  = flag.String("out", "-", "output JSONL file, - for stdout")
		format   = flag.String("format", batch.FormatAuto, "input format: auto, lines or jsonl")
		chunk    = flag.Int("chunk", 64, "texts per classify call")
		workers  = flag.Int("workers", 4, "concurrent classify calls")
		userID   = flag.String("user", "", "user id stamped on history rows")
		failFast = flag.Bool("fail-fast", false, "stop at the first failed chunk")
	)
	flag.Parse()

	if !slices.Contains(batch.Formats(), *format) {
		log.Fatalf("bad -format %q", *format)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	l := logger.Get()

	st, err := store.Open(ctx, store.FromEnv(root, "sentimentd", "batch"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	opt, err := classifymod.FromConfig(root)
	if err != nil {
		l.Fatal().Err(err).Msg("classify config")
	}
	m, err := classifymod.New(ctx, modkit.FromStore(*l, root, st), opt)
	if err != nil {
		l.Fatal().Err(err).Msg("classify module")
	}

	in, closeIn := open(*inPath)
	defer closeIn()
	items, err := batch.Read(in, *format)
	if err != nil {
		l.Fatal().Err(err).Msg("read input")
	}

	out, closeOut := create(*outPath)
	defer closeOut()

	runner := batch.New(m.Service(), batch.Config{
		Chunk:    *chunk,
		Workers:  *workers,
		UserID:   *userID,
		FailFast: *failFast,
	})
	stats, err := runner.Run(ctx, items, out)
	if err != nil {
		l.Error().Err(err).Msg("batch failed")
		closeOut()
		os.Exit(1)
	}

	// summary goes to stderr so stdout stays pure JSONL
	_ = json.NewEncoder(os.Stderr).Encode(stats)
	if stats.Failed > 0 {
		closeOut()
		os.Exit(2)
	}
}

func open(path string) (io.Reader, func()) {
	if path == "-" {
		return os.Stdin, func() {}
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	return f, func() { _ = f.Close() }
}

func create(path string) (io.Writer, func()) {
	if path == "-" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create %s: %v", path, err)
	}
	var once bool
	return f, func() {
		if once {
			return
		}
		once = true
		if err := f.Close(); err != nil {
			log.Printf("close %s: %v", path, err)
		}
	}
}
