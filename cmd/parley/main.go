// Command parley is a terminal conversational assistant. It resolves a
// layered configuration (flags, environment, config file, defaults), selects
// a model backend, and runs either a one-shot request or an interactive
// prompt loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/parley-cli/parley/pkg/backends"
	"github.com/parley-cli/parley/pkg/config"
	"github.com/parley-cli/parley/pkg/parleydir"
	"github.com/parley-cli/parley/pkg/session"
	"github.com/parley-cli/parley/pkg/templates"
	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parley [flags]\n\nWithout input flags parley starts an interactive session. Supplying any\nof --msg, --file, --load-folder, --image, or --task runs a single turn\nand exits.\n\nFlags:\n")
		flag.PrintDefaults()
	}

	var ov config.Overrides
	stringVar(&ov.Msg, "msg", "m", "send a single message and exit")
	stringVar(&ov.Model, "model", "", "model identifier (overrides the stored setting)")
	stringVar(&ov.ModelType, "model-type", "", "backend type: server-based, in-process-library, or local-quantized-file")
	stringVar(&ov.System, "system", "s", "system prompt template name or path")
	stringVar(&ov.SystemFile, "system-file", "", "explicit system prompt file path")
	stringVar(&ov.File, "file", "f", "send the contents of a text file")
	stringVar(&ov.Image, "image", "i", "attach an image file")
	stringVar(&ov.Folder, "load-folder", "", "send every readable file in a folder, recursively")
	stringVar(&ov.Ext, "ext", "", "extension filter for --load-folder (e.g. md)")
	stringVar(&ov.Task, "task", "t", "task template name or path, prepended to the input")
	stringVar(&ov.TaskFile, "task-file", "", "explicit task template file path")
	stringVar(&ov.OutputFile, "output-file", "o", "append completed responses to this file")

	flag.BoolVar(&ov.NoLog, "no-log", false, "do not write the session chat log")
	flag.BoolVar(&ov.NoOut, "no-out", false, "suppress console output (responses still go to --output-file)")
	flag.BoolVar(&ov.Debug, "debug", false, "enable debug logging")

	listModels := flag.Bool("list-models", false, "list models available on the configured backend and exit")
	genConfig := flag.Bool("generate-config", false, "write the config file, prompting for unset values, and exit")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")

	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(ov, *listModels, *genConfig); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stringVar registers a string flag, optionally with a one-letter shorthand.
func stringVar(p *string, long, short, usage string) {
	flag.StringVar(p, long, "", usage)
	if short != "" {
		flag.StringVar(p, short, "", usage+" (shorthand)")
	}
}

func run(ov config.Overrides, listModels, genConfig bool) error {
	dir := parleydir.Resolve(os.LookupEnv)
	if err := parleydir.EnsureStructure(dir); err != nil {
		return err
	}
	if err := templates.WriteDefaults(dir); err != nil {
		return err
	}

	logger, err := newLogger(ov.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := config.Load(dir.ConfigPath(os.LookupEnv), logger)
	if err != nil {
		return err
	}

	if genConfig {
		return generateConfig(store, ov)
	}

	eff, err := config.Build(ov, os.LookupEnv, store, logger)
	if err != nil {
		return err
	}

	// Template references resolve to content up front so a bad reference is
	// one well-located error instead of a failure mid-session.
	resolver := templates.NewResolver(dir)

	systemPrompt, err := resolver.Resolve(templates.KindSystem, eff.SystemRef)
	if err != nil {
		return err
	}

	task, err := resolver.Resolve(templates.KindTask, eff.TaskRef)
	if err != nil {
		return err
	}

	// SIGINT is handled per-turn inside the session so an interrupt cancels
	// the current generation, not the whole process.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	b, err := backends.New(ctx, eff, systemPrompt, logger)
	if err != nil {
		return err
	}

	if listModels {
		return printModels(ctx, b, eff.ModelType)
	}

	sess := session.New(session.Options{
		Config:      eff,
		Backend:     b,
		TaskContent: task,
		ChatLogDir:  dir.ChatLogsDir(),
		Logger:      logger,
	})

	logger.Debug("session configured",
		zap.String("session", sess.ID()),
		zap.String("home", dir.Root()),
	)

	return sess.Run(ctx)
}

// modelLister is implemented by backends that can enumerate their models.
type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

func printModels(ctx context.Context, b any, modelType string) error {
	lister, ok := b.(modelLister)
	if !ok {
		return fmt.Errorf("--list-models is not supported for %s backends", modelType)
	}

	names, err := lister.ListModels(ctx)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("no models available")
		return nil
	}

	for _, name := range names {
		fmt.Println(name)
	}

	return nil
}

// newLogger returns a development logger on stderr when debug is enabled and
// a nop logger otherwise.
func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
