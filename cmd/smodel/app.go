package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"model-engine/internal/archive"
	"model-engine/internal/config"
	"model-engine/internal/env"
	"model-engine/internal/logger"
	"model-engine/internal/smodel"
)

const envFile = ".env"

// globalFlags are accepted by every subcommand.
type globalFlags struct {
	configPath string
	models     string
	lenient    bool
	logLevel   string
	logFormat  string
}

// app is the state shared by a subcommand run: settings, logging and the opened model pack.
type app struct {
	out    io.Writer
	errOut io.Writer
	flags  globalFlags

	cfg    config.Config
	log    *logger.Logger
	slog   *slog.Logger
	fsys   fs.FS
	pack   io.Closer
	parser *smodel.Parser
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&a.flags.configPath, "config", config.DefaultPath, "path to the YAML config file")
	fs.StringVar(&a.flags.models, "models", "", "model directory or .zip pack (overrides model_dir)")
	fs.BoolVar(&a.flags.lenient, "lenient", false, "record failed imports instead of failing")
	fs.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&a.flags.logFormat, "log-format", "", "log format: text, json")
	return fs
}

// loadConfig resolves settings: defaults, config file, .env and process environment, flags.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	vars, err := env.Read(envFile)
	if err != nil {
		return fmt.Errorf("env: %w", err)
	}
	if err := cfg.ApplyEnv(env.Lookup(vars)); err != nil {
		return err
	}
	cfg, err = config.Merge(cfg, config.Config{
		ModelDir:       a.flags.models,
		LenientImports: a.flags.lenient,
		LogLevel:       a.flags.logLevel,
		LogFormat:      a.flags.logFormat,
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// setup loads settings, starts logging and opens the model pack.
func (a *app) setup() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	a.log = logger.New(a.cfg.LogFile)
	a.slog = a.log.Slog(a.cfg.LogLevel, a.cfg.LogFormat, a.errOut)

	fsys, closer, err := archive.OpenPack(a.cfg.ModelDir)
	if err != nil {
		return err
	}
	a.fsys = fsys
	a.pack = closer
	a.parser = smodel.NewParser(smodel.Options{
		FS:             fsys,
		Logger:         a.slog,
		LenientImports: a.cfg.LenientImports,
	})
	a.slog.Debug("model pack opened", "path", a.cfg.ModelDir, "lenient_imports", a.cfg.LenientImports)
	return nil
}

func (a *app) close() {
	if a.pack != nil {
		_ = a.pack.Close()
		a.pack = nil
	}
}
