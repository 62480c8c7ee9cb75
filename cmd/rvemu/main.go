// Package main provides the entry point for rvemu.
// rvemu runs statically linked RV64GC Linux programs in user mode.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvemu/config"
	"github.com/sarchlab/rvemu/emu"
	"github.com/sarchlab/rvemu/loader"
)

// exitFailure is the host exit status for failures of the emulator itself.
const exitFailure = 1

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath    string
	verbose       bool
	trace         bool
	maxInsts      uint64
	noDecodeCache bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}

	fs := flag.NewFlagSet("rvemu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration JSON file")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.BoolVar(&opts.trace, "trace", false, "Log every executed instruction")
	fs.Uint64Var(&opts.maxInsts, "max-insts", 0, "Stop after this many instructions (0 means no limit)")
	fs.BoolVar(&opts.noDecodeCache, "no-decode-cache", false, "Disable the decoded instruction cache")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rvemu [options] <program.elf> [args...]\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, nil, fmt.Errorf("missing program")
	}

	return opts, fs.Args(), nil
}

// buildConfig layers defaults, the config file, the environment and the
// command line flags, in that order.
func buildConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if opts.verbose && cfg.Level() < logrus.DebugLevel {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if opts.trace {
		cfg.Trace = true
	}
	if opts.maxInsts > 0 {
		cfg.MaxInstructions = opts.maxInsts
	}
	if opts.noDecodeCache {
		cfg.DecodeCacheSets = 0
	}

	return cfg, cfg.Validate()
}

// run executes the guest program named by args and returns the host exit
// status: the guest's own status when it exits, exitFailure otherwise.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, guestArgs, err := parseFlags(args, stderr)
	if err != nil {
		return exitFailure
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	cfg, err := buildConfig(opts)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return exitFailure
	}
	logger.SetLevel(cfg.Level())

	programPath := guestArgs[0]
	prog, err := loader.Load(programPath)
	if err != nil {
		logger.WithError(err).WithField("program", programPath).Error("failed to load program")
		return exitFailure
	}

	logger.WithFields(logrus.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%x", prog.EntryPoint),
		"segments": len(prog.Segments),
	}).Debug("loaded program")

	e, err := emu.NewEmulator(
		emu.WithStdin(stdin),
		emu.WithStdout(stdout),
		emu.WithStderr(stderr),
		emu.WithLogger(logger),
		emu.WithWindowSize(cfg.WindowSize),
		emu.WithStackSize(cfg.StackSize),
		emu.WithMaxInstructions(cfg.MaxInstructions),
		emu.WithDecodeCache(cfg.DecodeCacheSets, cfg.DecodeCacheWays),
	)
	if err != nil {
		logger.WithError(err).Error("failed to create emulator")
		return exitFailure
	}
	defer func() {
		if err := e.Close(); err != nil {
			logger.WithError(err).Warn("failed to release emulator")
		}
	}()

	if err := e.LoadELF(prog); err != nil {
		logger.WithError(err).Error("failed to map program")
		return exitFailure
	}
	if err := e.SetupStack(guestArgs); err != nil {
		logger.WithError(err).Error("failed to set up stack")
		return exitFailure
	}

	status, err := e.Run()
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"pc":           fmt.Sprintf("0x%x", e.State().PC),
			"instructions": e.InstructionCount(),
		}).Error("emulation failed")
		logger.Errorf("guest state:\n%s", spew.Sdump(e.State()))
		return exitFailure
	}

	fields := logrus.Fields{
		"status":       status,
		"instructions": e.InstructionCount(),
	}
	if cache := e.DecodeCache(); cache != nil {
		stats := cache.Stats()
		fields["decode_hits"] = stats.Hits
		fields["decode_misses"] = stats.Misses
	}
	logger.WithFields(fields).Debug("guest exited")

	return int(status)
}
