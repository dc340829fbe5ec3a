package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gogpu/spvbuild"
	"github.com/gogpu/spvbuild/config"
	"github.com/gogpu/spvbuild/target"
	"github.com/gogpu/spvbuild/watch"
	"github.com/gogpu/spvbuild/wgslc"
)

// buildFlags holds the root command's flag values.
type buildFlags struct {
	multimodule  bool
	debug        bool
	target       string
	capabilities []string
	extensions   []string
	output       string
	metadata     string
	config       string
	watch        bool
}

// app carries the state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	verbose bool
	flags   buildFlags

	// log is built in PersistentPreRunE unless already set. level is
	// only valid when ownLevel is true.
	log      *zap.Logger
	level    zap.AtomicLevel
	ownLevel bool
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spvbuild [flags] <path>",
		Short: "Compile a WGSL shader into SPIR-V modules",
		Long: `spvbuild compiles the shader at <path> and writes the result next to it,
or into --output. With --multimodule every entry point becomes its own
module, named after the entry point with "::" replaced by "_".

Settings may also come from spvbuild.yaml, spvbuild.yml or spvbuild.toml
next to <path>, and from SPVBUILD_TARGET, SPVBUILD_OUTPUT,
SPVBUILD_CACHE_DIR and SPVBUILD_LOG_LEVEL. Flags take precedence.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: a.runBuild,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	f := cmd.Flags()
	f.BoolVar(&a.flags.multimodule, "multimodule", false, "write one module per entry point")
	f.BoolVar(&a.flags.debug, "debug", false, "debug build (release is the default)")
	f.StringVar(&a.flags.target, "target", "", `target triple (default "spirv-unknown-spv1.0")`)
	f.StringSliceVar(&a.flags.capabilities, "capabilities", nil, "SPIR-V capabilities to enable (see 'spvbuild capabilities')")
	f.StringSliceVar(&a.flags.extensions, "extensions", nil, "SPIR-V extensions to declare")
	f.StringVarP(&a.flags.output, "output", "o", "", "output directory (default: directory of <path>)")
	f.StringVar(&a.flags.metadata, "spirv-metadata", "", "none, full or name-variables (default none)")
	f.StringVar(&a.flags.config, "config", "", "config file (default: spvbuild.{yaml,yml,toml} next to <path>)")
	f.BoolVar(&a.flags.watch, "watch", false, "rebuild whenever <path> or the config file changes")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(a.inspectCmd(), a.capabilitiesCmd(), a.versionCmd())
	return cmd
}

// initLogger builds a production logger on stderr. The level starts at
// warn and is raised to debug by --verbose.
func (a *app) initLogger() error {
	if a.log != nil {
		return nil
	}
	a.level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose {
		a.level.SetLevel(zapcore.DebugLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = a.level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = logger
	a.ownLevel = true
	return nil
}

func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	if !a.flags.watch {
		return a.buildOnce(ctx, cmd, path)
	}

	cfg, err := a.loadConfig(cmd, path)
	if err != nil {
		return err
	}
	files := []string{path}
	if cfg.Path != "" {
		files = append(files, cfg.Path)
	}
	w, err := watch.New(files, watch.Options{Logger: a.log})
	if err != nil {
		return err
	}
	a.log.Info("watching", zap.Strings("files", files))
	err = w.Run(ctx, func(ctx context.Context) error {
		return a.buildOnce(ctx, cmd, path)
	})
	a.log.Info("stopped watching", zap.Int("builds", w.Builds()))
	return err
}

// buildOnce resolves the configuration afresh and runs one build.
func (a *app) buildOnce(ctx context.Context, cmd *cobra.Command, path string) error {
	cfg, err := a.loadConfig(cmd, path)
	if err != nil {
		return err
	}
	if a.ownLevel && !a.verbose {
		lvl, err := cfg.Level()
		if err != nil {
			return err
		}
		a.level.SetLevel(lvl)
	}

	req, err := spvbuild.NewRequest(cfg.Options(path))
	if err != nil {
		return err
	}
	b := &spvbuild.Builder{
		Compiler: wgslc.New(wgslc.Options{
			CacheDir:       cfg.CacheDir,
			SkipValidation: cfg.SkipValidation,
			Logger:         a.log,
		}),
		Logger: a.log,
	}
	_, err = b.Build(ctx, req)
	return err
}

// loadConfig layers flags that were set explicitly over the project
// configuration for path.
func (a *app) loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(path); err == nil {
		dir = filepath.Dir(abs)
	}
	cfg, err := config.Resolve(a.flags.config, dir)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		a.log.Debug("loaded config", zap.String("path", cfg.Path))
	}

	f := cmd.Flags()
	if f.Changed("multimodule") {
		cfg.Multimodule = a.flags.multimodule
	}
	if f.Changed("debug") {
		cfg.Debug = a.flags.debug
	}
	if f.Changed("target") {
		// An explicit empty value is an error rather than the default.
		if _, err := target.Parse(a.flags.target); err != nil {
			return nil, &spvbuild.ConfigError{Field: "target", Value: a.flags.target, Err: err}
		}
		cfg.Target = a.flags.target
	}
	if f.Changed("capabilities") {
		cfg.Capabilities = a.flags.capabilities
	}
	if f.Changed("extensions") {
		cfg.Extensions = a.flags.extensions
	}
	if f.Changed("output") {
		cfg.Output = a.flags.output
	}
	if f.Changed("spirv-metadata") {
		if _, err := spvbuild.ParseMetadata(a.flags.metadata); err != nil {
			return nil, &spvbuild.ConfigError{Field: "spirv-metadata", Value: a.flags.metadata, Err: err}
		}
		cfg.SpirvMetadata = a.flags.metadata
	}
	return cfg, nil
}
