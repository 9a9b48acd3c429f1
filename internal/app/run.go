package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rtfcheck/internal/config"
	"rtfcheck/internal/extract"
	"rtfcheck/internal/harness"
	"rtfcheck/internal/integrity"
	"rtfcheck/internal/logging"
	"rtfcheck/internal/output"
	"rtfcheck/internal/scenario"
)

type Options struct {
	Dir            string
	ConfigPath     string
	LogFile        string
	Extension      string
	Scenarios      []string
	CheckSignature bool
	ReportDir      string
	Debug          bool
	// Extractor replaces the configured extractor command when set.
	Extractor extract.Extractor
	CWD       string
	Stdout    io.Writer
	Stderr    io.Writer
}

type Result struct {
	Report     scenario.Report
	LogFile    string
	ReportFile string
	Matched    int
	Unmatched  int
	Errored    int
	ElapsedMS  int64
}

func Run(ctx context.Context, opts Options) (Result, error) {
	started := time.Now()
	cwd := strings.TrimSpace(opts.CWD)
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Result{}, fmt.Errorf("get working directory failed: %w", err)
		}
		cwd = wd
	}

	cfg, paths, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return Result{}, err
	}
	overrideConfig(cfg, opts, cwd)
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	scenarios, err := scenario.Select(cfg.Scenarios)
	if err != nil {
		return Result{}, err
	}

	extractor := opts.Extractor
	if extractor == nil {
		cmd, err := extract.NewCommand(cfg.Extractor.Command, time.Duration(cfg.Extractor.TimeoutSec)*time.Second)
		if err != nil {
			if errors.Is(err, extract.ErrNoCommand) {
				return Result{}, fmt.Errorf("no extractor configured: set extractor.command in %s or %s", config.DefaultFileName, config.EnvExtractor)
			}
			return Result{}, err
		}
		extractor = cmd
	}

	if err := output.EnsureDir(filepath.Dir(cfg.LogFile)); err != nil {
		return Result{}, fmt.Errorf("create log dir failed: %w", err)
	}
	logger, closer, err := logging.New(opts.Stdout, cfg.LogFile, logging.Options{
		Name:   cfg.LoggerName,
		NDJSON: cfg.LogFormat == "ndjson",
	})
	if err != nil {
		return Result{}, err
	}
	if closer != nil {
		defer closer.Close()
	}

	logger.Info(fmt.Sprintf("Config loaded from %s", paths.ConfigSource))
	logger.Info(fmt.Sprintf("Checking %s files in %s", cfg.Extension, cfg.Dir))

	runOpts := scenario.RunOptions{Extension: cfg.Extension}
	if cfg.CheckSignature {
		runOpts.Verify = integrity.CheckSignature
	}
	if opts.Debug {
		runOpts.Debug = debugSink(opts.Stderr)
	}

	report, err := scenario.Run(ctx, scenarios, cfg.Dir, extractor, logger, runOpts)
	if err != nil {
		return Result{LogFile: cfg.LogFile}, err
	}

	res := Result{Report: report, LogFile: cfg.LogFile}
	res.Matched, res.Unmatched, res.Errored = report.Totals()

	if strings.TrimSpace(opts.ReportDir) != "" {
		reportFile, err := writeReport(absPath(cwd, opts.ReportDir), cfg.Dir, logger.RunID(), report)
		if err != nil {
			logger.Error(fmt.Sprintf("Report not written: %v", err))
			return res, err
		}
		res.ReportFile = reportFile
		logger.Info(fmt.Sprintf("Report written: %s", reportFile))
	}

	res.ElapsedMS = time.Since(started).Milliseconds()
	logger.Info(fmt.Sprintf("Run finished: scenarios=%d matched=%d unmatched=%d errors=%d", len(report.Outcomes), res.Matched, res.Unmatched, res.Errored))
	return res, nil
}

func overrideConfig(cfg *config.Config, opts Options, cwd string) {
	if strings.TrimSpace(opts.Dir) != "" {
		cfg.Dir = absPath(cwd, opts.Dir)
	}
	if strings.TrimSpace(opts.LogFile) != "" {
		cfg.LogFile = absPath(cwd, opts.LogFile)
	}
	if strings.TrimSpace(opts.Extension) != "" {
		ext := strings.TrimSpace(opts.Extension)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extension = ext
	}
	if len(opts.Scenarios) > 0 {
		cfg.Scenarios = opts.Scenarios
	}
	if opts.CheckSignature {
		cfg.CheckSignature = true
	}
}

func debugSink(w io.Writer) func(string) {
	if w == nil {
		return nil
	}
	return func(msg string) {
		fmt.Fprintf(w, "[debug] %s\n", msg)
	}
}

func writeReport(dir, docsDir, runID string, report scenario.Report) (string, error) {
	if err := output.EnsureDir(dir); err != nil {
		return "", err
	}
	_, path, err := output.NextReport(dir, 8, nil)
	if err != nil {
		return "", err
	}
	out := output.Report{
		RunID:       runID,
		Dir:         docsDir,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}
	for _, o := range report.Outcomes {
		sr := output.ScenarioReport{
			Name:        o.Scenario.Name,
			SRS:         o.Scenario.SRS,
			URS:         o.Scenario.URS,
			Requirement: o.Scenario.Requirement,
			Matched:     o.Result.Matched,
			Unmatched:   o.Result.Unmatched,
			Errored:     o.Result.Errored,
		}
		for _, f := range o.Result.Files {
			fr := output.FileReport{Name: f.Name, Outcome: f.Outcome.String(), Headers: f.Headers}
			if f.Outcome == harness.OutcomeError && f.Err != nil {
				fr.Error = f.Err.Error()
			}
			sr.Files = append(sr.Files, fr)
		}
		out.Scenarios = append(out.Scenarios, sr)
	}
	if err := output.WriteReport(path, out); err != nil {
		return "", err
	}
	return path, nil
}

func absPath(cwd, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}
