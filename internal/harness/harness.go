// Package harness runs one classification rule across a directory of
// documents. Each candidate file is read, handed to an Extractor, and the
// extracted headers are judged by a Predicate. File names land in the matched
// or unmatched bucket; files that could not be read or extracted are reported
// as errors and also appended to unmatched.
//
// Only directory-level failures are returned to the caller. Everything that
// goes wrong with a single file is logged and the batch moves on.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"rtfcheck/internal/discovery"
	"rtfcheck/internal/extract"
)

var (
	ErrDirectoryNotFound   = discovery.ErrDirectoryNotFound
	ErrDirectoryUnreadable = discovery.ErrDirectoryUnreadable
	ErrFileRead            = errors.New("file read failed")
	ErrExtraction          = errors.New("extraction failed")
	ErrNoExtractor         = errors.New("no extractor configured")
)

// Logger receives one record per step. Every record names the file it is about.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

type Outcome int

const (
	OutcomeMatched Outcome = iota
	OutcomeUnmatched
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeError:
		return "error"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// FileError is a per-file failure. Kind is ErrFileRead or ErrExtraction.
type FileError struct {
	Name  string
	Kind  error
	Cause error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Name, e.Cause)
}

func (e *FileError) Unwrap() []error { return []error{e.Kind, e.Cause} }

type FileOutcome struct {
	Name    string
	Outcome Outcome
	Headers []string
	Err     error
}

type Result struct {
	Matched   []string
	Unmatched []string
	// Errored is the subset of Unmatched that failed to classify.
	Errored []string
	Files   []FileOutcome
}

// Messages are fmt templates taking the file name.
type Messages struct {
	Matched   string
	Unmatched string
}

var DefaultMessages = Messages{
	Matched:   "Column headers extracted in file: %s",
	Unmatched: "Column headers missing or invalid in file: %s",
}

type Options struct {
	Extension string
	Messages  Messages
	// Verify, when set, runs on raw content before extraction. A non-nil
	// error classifies the file as an error.
	Verify func(name string, content []byte) error
	// Debug receives a copy of every completion record.
	Debug func(msg string)
}

type nopLogger struct{}

func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(string) {}

// ClassifyDirectory runs a single sequential pass over dir. Files are visited
// in directory listing order.
func ClassifyDirectory(ctx context.Context, dir string, extractor extract.Extractor, predicate Predicate, logger Logger, opts Options) (Result, error) {
	if extractor == nil {
		return Result{}, ErrNoExtractor
	}
	if predicate == nil {
		predicate = HasHeaders
	}
	if logger == nil {
		logger = nopLogger{}
	}
	msgs := opts.Messages
	if msgs.Matched == "" {
		msgs.Matched = DefaultMessages.Matched
	}
	if msgs.Unmatched == "" {
		msgs.Unmatched = DefaultMessages.Unmatched
	}

	found, err := discovery.Candidates(dir, opts.Extension)
	if err != nil {
		return Result{}, err
	}
	for _, w := range found.Warnings {
		logger.Warn(w)
	}

	res := Result{Matched: []string{}, Unmatched: []string{}, Errored: []string{}}
	for _, name := range found.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger.Info(fmt.Sprintf("Processing file: %s", name))
		fo := classifyFile(ctx, filepath.Join(dir, name), name, extractor, predicate, opts.Verify)

		var msg string
		switch fo.Outcome {
		case OutcomeMatched:
			msg = fmt.Sprintf(msgs.Matched, name)
			logger.Info(msg)
			res.Matched = append(res.Matched, name)
		case OutcomeUnmatched:
			msg = fmt.Sprintf(msgs.Unmatched, name)
			logger.Warn(msg)
			res.Unmatched = append(res.Unmatched, name)
		default:
			msg = fmt.Sprintf("Error processing file %s: %v", name, fo.Err)
			logger.Error(msg)
			res.Unmatched = append(res.Unmatched, name)
			res.Errored = append(res.Errored, name)
		}
		if opts.Debug != nil {
			opts.Debug(msg)
		}
		res.Files = append(res.Files, fo)
	}
	return res, nil
}

func classifyFile(ctx context.Context, path, name string, extractor extract.Extractor, predicate Predicate, verify func(string, []byte) error) FileOutcome {
	fo := FileOutcome{Name: name}
	raw, err := os.ReadFile(path)
	if err != nil {
		fo.Outcome, fo.Err = OutcomeError, &FileError{Name: name, Kind: ErrFileRead, Cause: err}
		return fo
	}
	if !utf8.Valid(raw) {
		fo.Outcome, fo.Err = OutcomeError, &FileError{Name: name, Kind: ErrFileRead, Cause: errors.New("content is not valid UTF-8")}
		return fo
	}
	if verify != nil {
		if err := verify(name, raw); err != nil {
			fo.Outcome, fo.Err = OutcomeError, &FileError{Name: name, Kind: ErrFileRead, Cause: err}
			return fo
		}
	}

	out, err := safeExtract(ctx, extractor, string(raw))
	if err != nil {
		fo.Outcome, fo.Err = OutcomeError, &FileError{Name: name, Kind: ErrExtraction, Cause: err}
		return fo
	}
	fo.Headers = out.Headers
	if predicate(out) {
		fo.Outcome = OutcomeMatched
	} else {
		fo.Outcome = OutcomeUnmatched
	}
	return fo
}

func safeExtract(ctx context.Context, extractor extract.Extractor, content string) (res extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return extractor.Extract(ctx, content)
}
