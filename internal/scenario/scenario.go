package scenario

import (
	"context"
	"fmt"
	"strings"

	"rtfcheck/internal/extract"
	"rtfcheck/internal/harness"
	"rtfcheck/internal/logging"
)

type Scenario struct {
	Name        string
	SRS         string
	URS         string
	Requirement string
	Start       string
	Predicate   harness.Predicate
	Messages    harness.Messages
}

const (
	srsNoHeader = "KEX0002.3.3"
	ursNoHeader = "KEX002.4.30"
)

var registry = []Scenario{
	{
		Name:        "no-row-header-positive",
		SRS:         srsNoHeader,
		URS:         ursNoHeader,
		Requirement: "The system should have the ability to extract Tables and Lists even if there is no Row header /Column header specified.",
		Start:       "Starting test case for empty column headers",
		Predicate:   harness.HasHeaders,
		Messages: harness.Messages{
			Matched:   "Column headers extracted in file: %s",
			Unmatched: "Empty column headers found in file: %s",
		},
	},
	{
		Name:        "no-row-header-negative",
		SRS:         srsNoHeader,
		URS:         ursNoHeader,
		Requirement: "The system should report Tables and Lists whose Row header /Column header is missing or invalid.",
		Start:       "Starting negative test case for missing/invalid column headers",
		Predicate:   harness.MissingHeaders,
		Messages: harness.Messages{
			Matched:   "Column headers missing or invalid in file: %s",
			Unmatched: "Column headers extracted (negative test failed) in file: %s",
		},
	},
	{
		Name:        "null-column-header-positive",
		Requirement: "The system should have the capability to handle and extract data from Table and List files that have columns with Null column headers.",
		Start:       "Starting test case for valid (non-null) column headers",
		Predicate:   harness.AllHeadersNamed,
		Messages: harness.Messages{
			Matched:   "Valid column headers found in file: %s",
			Unmatched: "Null/Empty column headers detected (positive test failed) in file: %s",
		},
	},
	{
		Name:        "null-column-header-negative",
		Requirement: "The system should detect Table and List files whose column headers are all Null or empty.",
		Start:       "Starting negative test case for null/empty column headers",
		Predicate:   harness.MissingHeaders,
		Messages: harness.Messages{
			Matched:   "Null/Empty column headers detected in file: %s",
			Unmatched: "Column headers extracted (negative test failed) in file: %s",
		},
	},
}

// All returns every scenario in run order.
func All() []Scenario {
	out := make([]Scenario, len(registry))
	copy(out, registry)
	return out
}

func Names() []string {
	out := make([]string, 0, len(registry))
	for _, s := range registry {
		out = append(out, s.Name)
	}
	return out
}

func Lookup(name string) (Scenario, error) {
	name = strings.TrimSpace(name)
	for _, s := range registry {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Select resolves names in the given order, dropping duplicates. An empty
// list selects every scenario.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	seen := map[string]struct{}{}
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		s, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

type Outcome struct {
	Scenario Scenario
	Result   harness.Result
}

type Report struct {
	Outcomes []Outcome
}

func (r Report) Totals() (matched, unmatched, errored int) {
	for _, o := range r.Outcomes {
		matched += len(o.Result.Matched)
		unmatched += len(o.Result.Unmatched)
		errored += len(o.Result.Errored)
	}
	return matched, unmatched, errored
}

type RunOptions struct {
	Extension string
	Verify    func(name string, content []byte) error
	Debug     func(msg string)
}

// Run executes the scenarios in order against dir. Each scenario logs under
// its own child logger name. A directory-level failure stops the run.
func Run(ctx context.Context, scenarios []Scenario, dir string, extractor extract.Extractor, logger *logging.Logger, opts RunOptions) (Report, error) {
	report := Report{}
	for _, s := range scenarios {
		log := logger.Named(logger.Name() + "." + s.Name)
		log.Info(s.Start)
		res, err := harness.ClassifyDirectory(ctx, dir, extractor, s.Predicate, log, harness.Options{
			Extension: opts.Extension,
			Messages:  s.Messages,
			Verify:    opts.Verify,
			Debug:     opts.Debug,
		})
		if err != nil {
			log.Error(fmt.Sprintf("Scenario aborted: %v", err))
			return report, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		log.Info(summary(res))
		report.Outcomes = append(report.Outcomes, Outcome{Scenario: s, Result: res})
	}
	return report, nil
}

func summary(res harness.Result) string {
	return fmt.Sprintf("Finished: matched=%d unmatched=%d errors=%d", len(res.Matched), len(res.Unmatched), len(res.Errored))
}
