package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result is the header set produced for one document. The external wire
// shape is {"data": [...]}.
type Result struct {
	Headers []string `json:"data"`
}

type Extractor interface {
	Extract(ctx context.Context, content string) (Result, error)
}

// Func adapts a plain function to Extractor.
type Func func(ctx context.Context, content string) (Result, error)

func (f Func) Extract(ctx context.Context, content string) (Result, error) {
	return f(ctx, content)
}

var ErrNoCommand = errors.New("extractor command is empty")

// Command runs an external program per document: the document text goes to
// stdin and a JSON object {"data": [...]} is expected on stdout.
type Command struct {
	Args    []string
	Timeout time.Duration
	Env     []string
}

func NewCommand(args []string, timeout time.Duration) (*Command, error) {
	clean := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			continue
		}
		clean = append(clean, a)
	}
	if len(clean) == 0 {
		return nil, ErrNoCommand
	}
	return &Command{Args: clean, Timeout: timeout}, nil
}

func (c *Command) Extract(ctx context.Context, content string) (Result, error) {
	if c == nil || len(c.Args) == 0 {
		return Result{}, ErrNoCommand
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	if len(c.Env) > 0 {
		cmd.Env = c.Env
	}
	cmd.Stdin = strings.NewReader(content)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("extractor timed out: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Result{}, fmt.Errorf("extractor failed: %w: %s", err, msg)
		}
		return Result{}, fmt.Errorf("extractor failed: %w", err)
	}
	return Decode(stdout.Bytes())
}

// Decode parses the extractor wire format. The data field is required; an
// empty array is a valid result.
func Decode(raw []byte) (Result, error) {
	var payload struct {
		Data *[]string `json:"data"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &payload); err != nil {
		return Result{}, fmt.Errorf("extractor output is not valid JSON: %w", err)
	}
	if payload.Data == nil {
		return Result{}, fmt.Errorf("extractor output has no data field")
	}
	return Result{Headers: *payload.Data}, nil
}
