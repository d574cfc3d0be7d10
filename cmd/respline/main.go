package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/willabides/respline"
)

var cli struct {
	Sources       []string `kong:"arg,optional,help='files to scan, or objects when --bucket is set. names ending in .gz are decompressed. default is - (stdin)'"`
	Bucket        string   `kong:"help='read sources from this Google Cloud Storage bucket'"`
	Concurrency   int      `kong:"default=1,help='number of sources to scan at once. line order across sources is not preserved above 1'"`
	MaxLineLength int      `kong:"help='fail on lines longer than this many bytes. 0 means no limit'"`
	Prefix        []string `kong:"help='include only lines starting with one of these bytes, e.g. * or $'"`
	NoEmptyLines  bool     `kong:"help='skip empty lines'"`
	NoControl     bool     `kong:"help='skip lines containing control characters'"`
	JSON          bool     `kong:"name=json,help='output one json object per line with source and offset'"`
	Verbose       bool     `kong:"short=v,help='log debug output to stderr'"`
	MetricsAddr   string   `kong:"help='serve prometheus metrics on this address'"`
}

type jsonLine struct {
	Source string `json:"source"`
	Offset int64  `json:"offset"`
	Line   string `json:"line"`
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func prefixValidator(prefixes []string) (respline.Validator, error) {
	var bs []byte
	for _, p := range prefixes {
		if len(p) != 1 {
			return nil, fmt.Errorf("prefix %q is not a single byte", p)
		}
		bs = append(bs, p[0])
	}
	return respline.ValidatePrefix(bs...), nil
}

func writeLine(w io.Writer, line respline.Line, asJSON bool) error {
	if !asJSON {
		_, err := w.Write(append(line.Bytes, '\n'))
		return err
	}
	b, err := jsoniter.ConfigFastest.Marshal(jsonLine{
		Source: line.Source,
		Offset: line.Offset,
		Line:   string(line.Bytes),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func main() {
	k := kong.Parse(&cli)
	logger, err := newLogger(cli.Verbose)
	k.FatalIfErrorf(err, "error creating logger")
	defer func() {
		_ = logger.Sync() //nolint:errcheck // stderr sync fails on some platforms
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var validators []respline.Validator
	if cli.NoEmptyLines {
		validators = append(validators, respline.ValidateNotEmpty())
	}
	if cli.NoControl {
		validators = append(validators, respline.ValidateNoControl())
	}
	if len(cli.Prefix) > 0 {
		v, err := prefixValidator(cli.Prefix)
		k.FatalIfErrorf(err, "invalid prefix")
		validators = append(validators, v)
	}

	opts := &respline.Options{
		Bucket:        cli.Bucket,
		Validators:    validators,
		MaxLineLength: cli.MaxLineLength,
		Concurrency:   cli.Concurrency,
		Logger:        logger,
	}
	if cli.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.Registerer = reg
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			err := http.ListenAndServe(cli.MetricsAddr, mux)
			logger.Error("metrics server stopped", zap.Error(err))
		}()
	}

	sources := cli.Sources
	if len(sources) == 0 {
		sources = []string{"-"}
	}
	sc, err := respline.New(ctx, sources, opts)
	k.FatalIfErrorf(err, "error creating scanner")
	defer func() {
		_ = sc.Close() //nolint:errcheck // nothing to do with this error
	}()

	out := bufio.NewWriter(os.Stdout)
	defer func() {
		_ = out.Flush() //nolint:errcheck // nothing to do with this error
	}()
	for {
		line, err := sc.Next(ctx)
		if err == io.EOF || err == context.Canceled {
			break
		}
		if err != nil {
			_ = out.Flush() //nolint:errcheck // reporting the scan error matters more
		}
		k.FatalIfErrorf(err, "error scanning")
		err = writeLine(out, line, cli.JSON)
		k.FatalIfErrorf(err, "error writing output")
	}
}
