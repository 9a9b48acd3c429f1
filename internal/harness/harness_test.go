package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rtfcheck/internal/extract"
)

type record struct {
	Level string
	Msg   string
}

type recordLogger struct {
	records []record
}

func (l *recordLogger) Info(msg string)  { l.records = append(l.records, record{"info", msg}) }
func (l *recordLogger) Warn(msg string)  { l.records = append(l.records, record{"warning", msg}) }
func (l *recordLogger) Error(msg string) { l.records = append(l.records, record{"error", msg}) }

func (l *recordLogger) count(level, substr string) int {
	n := 0
	for _, r := range l.records {
		if r.Level == level && strings.Contains(r.Msg, substr) {
			n++
		}
	}
	return n
}

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	d := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(d, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

// byContent maps file content to a canned extraction result. Content
// starting with "raise:" makes the extractor fail.
func byContent(results map[string][]string) extract.Extractor {
	return extract.Func(func(_ context.Context, content string) (extract.Result, error) {
		if strings.HasPrefix(content, "raise:") {
			return extract.Result{}, fmt.Errorf("ValueError: %s", strings.TrimPrefix(content, "raise:"))
		}
		return extract.Result{Headers: results[content]}, nil
	})
}

func TestClassifyDirectoryScenario(t *testing.T) {
	d := writeDir(t, map[string]string{
		"a.rtf": "empty",
		"b.rtf": "named",
		"c.txt": "raise:should never be read",
	})
	ex := byContent(map[string][]string{
		"empty": {},
		"named": {"Name", "Age"},
	})
	log := &recordLogger{}
	res, err := ClassifyDirectory(context.Background(), d, ex, HasHeaders, log, Options{})
	if err != nil {
		t.Fatalf("ClassifyDirectory error: %v", err)
	}
	if diff := cmp.Diff([]string{"b.rtf"}, res.Matched); diff != "" {
		t.Fatalf("matched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.rtf"}, res.Unmatched); diff != "" {
		t.Fatalf("unmatched mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errored) != 0 {
		t.Fatalf("unexpected errored files: %v", res.Errored)
	}
	if log.count("info", "c.txt")+log.count("error", "c.txt") != 0 {
		t.Fatalf("c.txt should never be touched: %+v", log.records)
	}
	if log.count("info", "Processing file: a.rtf") != 1 || log.count("warning", "a.rtf") != 1 {
		t.Fatalf("a.rtf records missing: %+v", log.records)
	}
	if log.count("info", "Column headers extracted in file: b.rtf") != 1 {
		t.Fatalf("b.rtf completion record missing: %+v", log.records)
	}
}

func TestClassifyDirectoryExtractorFailure(t *testing.T) {
	d := writeDir(t, map[string]string{"d.rtf": "raise:bad table"})
	log := &recordLogger{}
	res, err := ClassifyDirectory(context.Background(), d, byContent(nil), HasHeaders, log, Options{})
	if err != nil {
		t.Fatalf("ClassifyDirectory error: %v", err)
	}
	if diff := cmp.Diff([]string{"d.rtf"}, res.Unmatched); diff != "" {
		t.Fatalf("unmatched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d.rtf"}, res.Errored); diff != "" {
		t.Fatalf("errored mismatch (-want +got):\n%s", diff)
	}
	if n := log.count("error", "d.rtf"); n != 1 {
		t.Fatalf("expected one error record for d.rtf, got %d: %+v", n, log.records)
	}
	if log.count("error", "ValueError: bad table") != 1 {
		t.Fatalf("error record should carry failure detail: %+v", log.records)
	}
	fo := res.Files[0]
	if fo.Outcome != OutcomeError || !errors.Is(fo.Err, ErrExtraction) {
		t.Fatalf("unexpected outcome: %+v", fo)
	}
}

func TestClassifyDirectoryExtractorPanic(t *testing.T) {
	d := writeDir(t, map[string]string{"p.rtf": "x", "q.rtf": "y"})
	ex := extract.Func(func(_ context.Context, content string) (extract.Result, error) {
		if content == "x" {
			panic("index out of range")
		}
		return extract.Result{Headers: []string{"H"}}, nil
	})
	res, err := ClassifyDirectory(context.Background(), d, ex, HasHeaders, nil, Options{})
	if err != nil {
		t.Fatalf("ClassifyDirectory error: %v", err)
	}
	if diff := cmp.Diff([]string{"q.rtf"}, res.Matched); diff != "" {
		t.Fatalf("matched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p.rtf"}, res.Errored); diff != "" {
		t.Fatalf("errored mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyDirectoryInvalidUTF8(t *testing.T) {
	d := writeDir(t, map[string]string{"bin.rtf": string([]byte{0xff, 0xfe, 0x00, 0x81})})
	called := false
	ex := extract.Func(func(context.Context, string) (extract.Result, error) {
		called = true
		return extract.Result{}, nil
	})
	log := &recordLogger{}
	res, err := ClassifyDirectory(context.Background(), d, ex, HasHeaders, log, Options{})
	if err != nil {
		t.Fatalf("ClassifyDirectory error: %v", err)
	}
	if called {
		t.Fatalf("extractor must not run on undecodable content")
	}
	if !errors.Is(res.Files[0].Err, ErrFileRead) {
		t.Fatalf("expected ErrFileRead, got %v", res.Files[0].Err)
	}
	if log.count("error", "bin.rtf") != 1 {
		t.Fatalf("expected error record: %+v", log.records)
	}
}

func TestClassifyDirectoryVerifyHook(t *testing.T) {
	d := writeDir(t, map[string]string{"ok.rtf": "good", "bad.rtf": "bad"})
	verify := func(name string, content []byte) error {
		if string(content) == "bad" {
			return errors.New("not rtf")
		}
		return nil
	}
	res, err := ClassifyDirectory(context.Background(), d, byContent(map[string][]string{"good": {"A"}}), HasHeaders, nil, Options{Verify: verify})
	if err != nil {
		t.Fatalf("ClassifyDirectory error: %v", err)
	}
	if diff := cmp.Diff([]string{"ok.rtf"}, res.Matched); diff != "" {
		t.Fatalf("matched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bad.rtf"}, res.Errored); diff != "" {
		t.Fatalf("errored mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyDirectoryEmptyDir(t *testing.T) {
	d := writeDir(t, map[string]string{"readme.md": "x"})
	res, err := ClassifyDirectory(context.Background(), d, byContent(nil), HasHeaders, nil, Options{})
	if err != nil {
		t.Fatalf("ClassifyDirectory error: %v", err)
	}
	if len(res.Matched) != 0 || len(res.Unmatched) != 0 || len(res.Errored) != 0 {
		t.Fatalf("expected empty buckets, got %+v", res)
	}
}

func TestClassifyDirectoryMissingDir(t *testing.T) {
	_, err := ClassifyDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), byContent(nil), HasHeaders, nil, Options{})
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestClassifyDirectoryRequiresExtractor(t *testing.T) {
	_, err := ClassifyDirectory(context.Background(), t.TempDir(), nil, HasHeaders, nil, Options{})
	if !errors.Is(err, ErrNoExtractor) {
		t.Fatalf("expected ErrNoExtractor, got %v", err)
	}
}

func TestClassifyDirectoryCanceled(t *testing.T) {
	d := writeDir(t, map[string]string{"a.rtf": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ClassifyDirectory(ctx, d, byContent(nil), HasHeaders, nil, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClassifyDirectoryIdempotent(t *testing.T) {
	d := writeDir(t, map[string]string{
		"1.rtf": "named",
		"2.rtf": "blank",
		"3.rtf": "empty",
		"4.rtf": "raise:x",
	})
	ex := byContent(map[string][]string{
		"named": {"Name"},
		"blank": {" ", "\t"},
		"empty": {},
	})
	first, err := ClassifyDirectory(context.Background(), d, ex, HasHeaders, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := ClassifyDirectory(context.Background(), d, ex, HasHeaders, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	sorted := func(in []string) []string {
		out := append([]string(nil), in...)
		sort.Strings(out)
		return out
	}
	if diff := cmp.Diff(sorted(first.Matched), sorted(second.Matched)); diff != "" {
		t.Fatalf("matched differs between runs:\n%s", diff)
	}
	if diff := cmp.Diff(sorted(first.Unmatched), sorted(second.Unmatched)); diff != "" {
		t.Fatalf("unmatched differs between runs:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2.rtf", "3.rtf", "4.rtf"}, sorted(first.Unmatched)); diff != "" {
		t.Fatalf("blank and empty should both be unmatched:\n%s", diff)
	}
}

func TestClassifyDirectoryMessagesAndDebug(t *testing.T) {
	d := writeDir(t, map[string]string{"a.rtf": "empty", "b.rtf": "named"})
	ex := byContent(map[string][]string{"named": {"Name"}})
	var debug []string
	log := &recordLogger{}
	_, err := ClassifyDirectory(context.Background(), d, ex, MissingHeaders, log, Options{
		Messages: Messages{
			Matched:   "Null/Empty column headers detected in file: %s",
			Unmatched: "Column headers extracted (negative test failed) in file: %s",
		},
		Debug: func(msg string) { debug = append(debug, msg) },
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Null/Empty column headers detected in file: a.rtf",
		"Column headers extracted (negative test failed) in file: b.rtf",
	}
	if diff := cmp.Diff(want, debug); diff != "" {
		t.Fatalf("debug sink mismatch (-want +got):\n%s", diff)
	}
	if log.count("warning", "negative test failed") != 1 {
		t.Fatalf("unmatched should log at warning: %+v", log.records)
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeMatched.String() != "matched" || OutcomeUnmatched.String() != "unmatched" || OutcomeError.String() != "error" {
		t.Fatalf("unexpected outcome names")
	}
	if Outcome(9).String() != "outcome(9)" {
		t.Fatalf("unexpected unknown outcome name: %s", Outcome(9))
	}
}
