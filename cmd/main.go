package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"kmerctx/internal/config"
	"kmerctx/internal/fasta"
	"kmerctx/internal/kmer"
	"kmerctx/internal/logging"
	"kmerctx/internal/report"
	"kmerctx/internal/store"

	"github.com/charmbracelet/log"
	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

const usageLine = "Usage: kmerctx <input_file> <k> <output_file>"

// exit statuses
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	configPath string
	logFile    string
	sqlitePath string
	verbose    bool
	progress   bool
	version    bool
}

// usageError marks command-line mistakes that are answered with the usage line.
type usageError struct {
	reason string
}

func (e *usageError) Error() string { return e.reason }

func addFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.configPath, "config", "", "path to kmerctx.json (optional)")
	fs.StringVar(&o.logFile, "log-file", "", "append logs to this file as well as stderr")
	fs.StringVar(&o.sqlitePath, "sqlite", "", "also store the context table in this SQLite database")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose (debug) logging")
	fs.BoolVar(&o.progress, "progress", false, "show a progress bar while reading the input")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	// flags must precede the positional arguments so a negative k is not read as a flag
	fs.SetInterspersed(false)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "kmerctx [flags] <input_file> <k> <output_file>",
		Short: "Count which characters follow every k-mer of a FASTA sequence",
		Long: `kmerctx reads a FASTA file, merges all sequence lines into one upper-case
sequence, and writes for every k-mer the characters observed right after it:

  AT: total 2
    G: 2`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				return nil
			}
			if len(args) != 3 {
				return &usageError{reason: fmt.Sprintf("expected 3 arguments, got %d", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintln(stdout, "kmerctx", version)
				return nil
			}
			return run(cmd.Context(), opts, args, stderr)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{reason: err.Error()}
	})
	addFlags(cmd.Flags(), opts)
	return cmd
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		fmt.Fprintln(stdout, usageLine)
		return exitUsage
	default:
		return exitError
	}
}

// run loads configuration, builds the logger and executes the pipeline.
// Failures are logged here; the returned error only selects the exit status.
func run(ctx context.Context, opts *options, args []string, stderr io.Writer) error {
	cfgPath, explicitCfg := opts.configPath, opts.configPath != ""
	if !explicitCfg {
		cfgPath = config.DefaultPath
	}
	cfg, cfgErr := config.LoadConfig(cfgPath)
	if cfgErr != nil {
		cfg = &config.Config{}
	}
	// merge CLI flags into config (flags override config when provided)
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	if opts.sqlitePath != "" {
		cfg.SQLitePath = opts.sqlitePath
	}
	if opts.progress {
		cfg.Progress = true
	}

	logger, closer := logging.New(logging.Options{
		Out:     stderr,
		LogFile: cfg.LogFile,
		Level:   cfg.LogLevel,
		Verbose: opts.verbose,
	})
	defer closer.Close()

	if cfgErr != nil {
		// only a config named on the command line is required to be valid
		if explicitCfg {
			logger.Error("failed to load config", "path", cfgPath, "err", cfgErr)
			return cfgErr
		}
		logger.Warn("ignoring unreadable default config, using defaults", "path", cfgPath, "err", cfgErr)
	}
	logger.Debug("loaded config", "log_file", cfg.LogFile, "log_level", cfg.LogLevel, "sqlite_path", cfg.SQLitePath, "progress", cfg.Progress)

	inputPath, kArg, outputPath := args[0], args[1], args[2]
	k, err := strconv.Atoi(kArg)
	if err != nil {
		err = fmt.Errorf("invalid k %q: %w", kArg, err)
		logger.Error("bad arguments", "err", err)
		return err
	}

	p := &pipeline{logger: logger, cfg: cfg, stderr: stderr}
	if err := p.run(ctx, inputPath, k, outputPath); err != nil {
		logger.Error("kmerctx failed", "err", err)
		return err
	}
	return nil
}

type pipeline struct {
	logger *log.Logger
	cfg    *config.Config
	stderr io.Writer
}

func (p *pipeline) run(ctx context.Context, inputPath string, k int, outputPath string) error {
	logger := p.logger
	logger.Info("starting kmerctx", "input", inputPath, "k", k, "output", outputPath)

	seq, err := p.load(inputPath)
	if err != nil {
		return err
	}
	logger.Info("loaded sequence", "path", inputPath, "length", len(seq))
	if logger.GetLevel() <= log.DebugLevel {
		p.logRecords(inputPath)
	}

	table, err := kmer.Extract(seq, k)
	if err != nil {
		return err
	}
	logger.Info("extracted contexts", "kmers", len(table), "increments", table.Increments())

	// open the archive before touching the output so a bad database path
	// fails the run without leaving a summary behind
	var db *store.Store
	if p.cfg.SQLitePath != "" {
		db, err = store.Open(ctx, p.cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	lines := report.Format(table)
	if err := report.Write(lines, outputPath); err != nil {
		return err
	}

	if db != nil {
		if err := db.Save(ctx, k, table); err != nil {
			if rerr := os.Remove(outputPath); rerr != nil {
				logger.Warn("could not remove output after failed sqlite save", "path", outputPath, "err", rerr)
			}
			return err
		}
		logger.Info("stored table in sqlite", "path", p.cfg.SQLitePath, "k", k)
	}
	logger.Info("wrote summary", "path", outputPath, "lines", len(lines))
	return nil
}

func (p *pipeline) load(path string) (string, error) {
	if !p.cfg.Progress {
		return fasta.LoadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}
	bar := pb.Full.New(0).SetTotal(size).SetWriter(p.stderr).Set(pb.Bytes, true).Start()
	defer bar.Finish()
	return fasta.Load(bar.NewProxyReader(f))
}

// logRecords reports the records that were merged into the sequence.
func (p *pipeline) logRecords(path string) {
	f, err := os.Open(path)
	if err != nil {
		p.logger.Debug("cannot reopen input for record listing", "err", err)
		return
	}
	defer f.Close()
	records, err := fasta.ParseFasta(f)
	if err != nil {
		p.logger.Debug("cannot list records", "err", err)
		return
	}
	p.logger.Debug("parsed fasta", "records", len(records))
	for i, r := range records {
		p.logger.Debug("record", "index", i, "header", r.Header, "length", len(r.Sequence))
	}
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
