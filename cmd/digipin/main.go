// Command digipin encodes coordinates to DIGIPIN codes and decodes codes
// back to their grid cell.
//
//	digipin [-h3res N] encode <lat> <lon>
//	digipin [-h3res N] decode <code>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mohammed-shakir/digipin/internal/core/model"
	"github.com/mohammed-shakir/digipin/internal/logger"
	"github.com/mohammed-shakir/digipin/internal/lookup"
	h3mapper "github.com/mohammed-shakir/digipin/internal/mapper/h3"
	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

var Version = "dev"

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("digipin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	h3res := fs.Int("h3res", -1, "include the H3 cell(s) at this resolution (0..15)")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	version := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: digipin [flags] encode <lat> <lon>")
		fmt.Fprintln(stderr, "       digipin [flags] decode <code>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, Version)
		return 0
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	zl := logger.Build(logger.Config{Level: level, Console: true, Component: "digipin"}, stderr)

	opts := model.NoExtras()
	if *h3res >= 0 {
		if err := h3mapper.ValidateRes(*h3res); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		opts.H3Res = *h3res
	}

	svc := lookup.New(lookup.Config{},
		lookup.WithMapper(h3mapper.New()),
		lookup.WithLogger(logger.NewSlog(&zl)),
	)

	out, err := dispatch(context.Background(), svc, fs.Args(), opts)
	if errors.Is(err, errUsage) {
		fs.Usage()
		return 2
	}
	if err != nil {
		writeJSON(stderr, errorBody(err))
		return 1
	}
	writeJSON(stdout, out)
	return 0
}

// positional arguments are not flag-parsed so negative coordinates pass
// through to the range checks
func dispatch(ctx context.Context, svc *lookup.Service, args []string, opts model.LookupOptions) (any, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	switch args[0] {
	case "encode":
		if len(args) != 3 {
			return nil, errUsage
		}
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("latitude %q: %w", args[1], err)
		}
		lon, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return nil, fmt.Errorf("longitude %q: %w", args[2], err)
		}
		return svc.Encode(ctx, lat, lon, opts)
	case "decode":
		if len(args) != 2 {
			return nil, errUsage
		}
		return svc.Decode(ctx, args[1], opts)
	default:
		return nil, errUsage
	}
}

func errorBody(err error) model.ErrorBody {
	kind := "bad_request"
	if digipin.IsInputError(err) {
		kind = digipin.Kind(err)
	}
	return model.ErrorBody{Error: kind, Message: err.Error()}
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("write output", "err", err)
	}
}
