package output

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type Report struct {
	RunID       string           `json:"run_id"`
	Dir         string           `json:"dir"`
	GeneratedAt string           `json:"generated_at"`
	Scenarios   []ScenarioReport `json:"scenarios"`
}

type ScenarioReport struct {
	Name        string       `json:"name"`
	SRS         string       `json:"srs,omitempty"`
	URS         string       `json:"urs,omitempty"`
	Requirement string       `json:"requirement"`
	Matched     []string     `json:"matched"`
	Unmatched   []string     `json:"unmatched"`
	Errored     []string     `json:"errored"`
	Files       []FileReport `json:"files"`
}

type FileReport struct {
	Name    string   `json:"name"`
	Outcome string   `json:"outcome"`
	Headers []string `json:"headers,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output dir is empty")
	}
	return os.MkdirAll(dir, 0o755)
}

// NextReport picks a report_<id>.json path in dir that does not exist yet.
func NextReport(dir string, randomLen int, randSrc io.Reader) (id string, path string, err error) {
	if randomLen <= 0 {
		randomLen = 8
	}
	if randSrc == nil {
		randSrc = rand.Reader
	}
	for i := 0; i < 1000; i++ {
		id, err = randomID(randomLen, randSrc)
		if err != nil {
			return "", "", err
		}
		path = filepath.Join(dir, fmt.Sprintf("report_%s.json", id))
		if !exists(path) {
			return id, path, nil
		}
	}
	return "", "", fmt.Errorf("could not find a free report file name")
}

// WriteReport creates path exclusively; an existing file is never overwritten.
func WriteReport(path string, r Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report failed: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create report failed (%s): %w", path, err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("write report failed (%s): %w", path, err)
	}
	return f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func randomID(n int, randSrc io.Reader) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(randSrc, buf); err != nil {
		return "", fmt.Errorf("read random bytes failed: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
