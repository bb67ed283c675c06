// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command multirec is the headless automation surface: it loads a recording
// configuration, synthesizes in-process playback controllers and drives one
// batch recording run to completion.
//
// Usage:
//
//	multirec run      -config run.yaml
//	multirec validate -config run.yaml
//	multirec predict  -config run.yaml
//	multirec export   -config run.yaml -out run.json
//
// The exit code of run is 0 iff the recording completed successfully.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/multirec/internal/compose"
	"github.com/ManuGH/multirec/internal/config"
	mrlog "github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/orchestrator"
	"github.com/ManuGH/multirec/internal/recorder"
	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/timeline"
	"github.com/ManuGH/multirec/internal/validation"
	"github.com/ManuGH/multirec/internal/wildcard"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("multirec", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to recording configuration (JSON or YAML)")
	outPath := fs.String("out", "", "output path for export or load")
	dbPath := fs.String("db", "", "path to the project configuration database")
	configID := fs.String("id", "", "configuration id for store commands")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion || cmd == "version" {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}
	needsConfig := true
	switch cmd {
	case "run", "validate", "predict", "export", "save":
	case "load", "list", "delete":
		needsConfig = false
	default:
		fmt.Fprintf(os.Stderr, "multirec: unknown command %q\n", cmd)
		return 2
	}

	mrlog.Configure(mrlog.Config{Level: *logLevel, Service: "multirec"})
	logger := mrlog.WithComponent("cli")

	var cfg *config.RecordingConfiguration
	if needsConfig {
		if *configPath == "" {
			fmt.Fprintln(os.Stderr, "multirec: -config is required")
			return 2
		}
		var err error
		cfg, err = config.Import(*configPath)
		if err != nil {
			logger.Error().Err(err).Str(mrlog.FieldPath, *configPath).Msg("load configuration")
			return 1
		}
	}

	switch cmd {
	case "run":
		return runRecording(cfg)
	case "validate":
		return runValidate(cfg)
	case "predict":
		return runPredict(cfg)
	case "export":
		return runExport(cfg, *outPath)
	case "save", "load", "list", "delete":
		return runStore(cmd, cfg, *dbPath, *configID, *outPath)
	}
	return 2
}

// synthScene builds an in-process scene holding one Director per configured
// timeline, sized from the authored duration. Headless runs have no host
// engine to resolve controllers against.
func synthScene(cfg *config.RecordingConfiguration) (sceneref.Scene, error) {
	nodes := make(map[string]sceneref.Node)
	for _, tl := range cfg.EnabledTimelines() {
		if tl.Duration <= 0 {
			return nil, fmt.Errorf("timeline %q has no authored duration for a headless run", tl.Name)
		}
		seq := timeline.NewSequence(tl.Name, cfg.FrameRate)
		seq.AddTrack(timeline.TrackControl, "content").
			AddClip(timeline.Clip{Name: tl.Name, Duration: tl.Duration})
		d := timeline.NewDirector(tl.Name, tl.Reference.Path, seq)
		nodes[d.Path()] = d
	}
	return mapScene(nodes), nil
}

type mapScene map[string]sceneref.Node

func (s mapScene) Find(path string) (sceneref.Node, bool) {
	n, ok := s[path]
	return n, ok
}

func runRecording(cfg *config.RecordingConfiguration) int {
	logger := mrlog.WithComponent("cli")

	scene, err := synthScene(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("synthesize scene")
		return 1
	}
	tracker := sceneref.NewTracker(scene)
	registry := recorder.NewRegistry()

	tempDir, err := os.MkdirTemp("", "multirec-*")
	if err != nil {
		logger.Error().Err(err).Msg("create temp dir")
		return 1
	}
	defer os.RemoveAll(tempDir) //nolint:errcheck

	orch := orchestrator.New(orchestrator.Deps{
		Composer:  compose.NewComposer(wildcard.New(), registry, tempDir),
		Tracker:   tracker,
		Validator: validation.NewService(tracker, registry),
		Bus:       newEventLogBus(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := orch.ExecuteRecording(ctx, cfg)
	for _, w := range res.Warnings {
		logger.Warn().Msg(w)
	}
	if !res.IsSuccess {
		logger.Error().
			Str(mrlog.FieldJobID, res.JobID).
			Str(mrlog.FieldReason, string(res.Reason)).
			Msg(res.Message)
		return 1
	}
	logger.Info().
		Str(mrlog.FieldJobID, res.JobID).
		Float64("duration_s", res.Duration).
		Int("streams", len(res.OutputPaths)).
		Msg("recording completed")
	for _, p := range res.OutputPaths {
		fmt.Println(p)
	}
	return 0
}

func runValidate(cfg *config.RecordingConfiguration) int {
	scene, err := synthScene(cfg)
	if err != nil {
		// Validation still works without controllers; reference issues
		// will surface per timeline.
		scene = mapScene{}
	}
	tracker := sceneref.NewTracker(scene)
	svc := validation.NewService(tracker, recorder.NewRegistry())

	report := svc.Validate(cfg)
	printJSON(report)
	if !report.Valid {
		return 1
	}
	return 0
}

func runPredict(cfg *config.RecordingConfiguration) int {
	printJSON(validation.PredictResourceUsage(cfg))
	return 0
}

func runExport(cfg *config.RecordingConfiguration, out string) int {
	if out == "" {
		fmt.Fprintln(os.Stderr, "multirec: export requires -out")
		return 2
	}
	if err := config.Export(cfg, out); err != nil {
		logger := mrlog.WithComponent("cli")
		logger.Error().Err(err).Str(mrlog.FieldPath, out).Msg("export configuration")
		return 1
	}
	return 0
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "multirec: encode output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
