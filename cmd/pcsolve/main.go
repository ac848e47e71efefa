package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/pcsolver/config"
	"github.com/domino14/pcsolver/pipeline"
)

var (
	GitVersion string
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run() error {
	ex, err := os.Executable()
	if err != nil {
		return err
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		return err
	}
	cfg.AdjustRelativePaths(exPath)

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	log.Info().Str("version", GitVersion).Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	if err := cfg.Validate(); err != nil {
		return err
	}

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var plan *pipeline.Plan
	if path := cfg.GetString(config.ConfigPlanFile); path != "" {
		if plan, err = pipeline.LoadPlan(path); err != nil {
			return err
		}
	} else if len(args) == 1 {
		plan = pipeline.DefaultPlan(args[0])
	} else {
		return fmt.Errorf("usage: pcsolve [flags] <phase>, phase one of %v", pipeline.Phases)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(pipeline.Options{
		DataPath:           cfg.GetString(config.ConfigDataPath),
		IndexFile:          cfg.DataFile(config.ConfigIndexFile),
		SolutionsFile:      cfg.DataFile(config.ConfigSolutionsFile),
		Threads:            cfg.GetInt(config.ConfigThreads),
		MaxLine:            cfg.GetInt(config.ConfigMaxLine),
		TotalDepth:         cfg.GetInt(config.ConfigTotalDepth),
		CheckpointEvery:    cfg.GetInt(config.ConfigCheckpointEvery),
		MemoSizePower:      cfg.GetInt(config.ConfigMemoSizePower),
		TableCacheFraction: cfg.GetFloat64(config.ConfigTableCacheFraction),
	})

	start := time.Now()
	err = p.Run(ctx, plan)
	if errors.Is(err, context.Canceled) {
		log.Info().Dur("elapsed", time.Since(start)).Msg("interrupted; progress is checkpointed")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("done")
	return nil
}
