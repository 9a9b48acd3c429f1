package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, ".env")
	content := "\n# comment\nA=1\nB='two'\nC=\"three\"\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadEnvFile(p)
	if err != nil {
		t.Fatalf("LoadEnvFile error: %v", err)
	}
	if m["A"] != "1" || m["B"] != "two" || m["C"] != "three" {
		t.Fatalf("unexpected map: %#v", m)
	}
}

func TestUpsertEnvVar(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "nested", ".env")
	if err := UpsertEnvVar(p, EnvDir, "/data/first"); err != nil {
		t.Fatalf("UpsertEnvVar create failed: %v", err)
	}
	m, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if m[EnvDir] != "/data/first" {
		t.Fatalf("unexpected created value: %#v", m)
	}

	if err := os.WriteFile(p, []byte("A=1\nRTFCHECK_DIR=old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := UpsertEnvVar(p, EnvDir, "/data/second"); err != nil {
		t.Fatalf("UpsertEnvVar update failed: %v", err)
	}
	m, err = LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if m[EnvDir] != "/data/second" || m["A"] != "1" {
		t.Fatalf("unexpected updated map: %#v", m)
	}
}

func TestUpsertEnvVarErrors(t *testing.T) {
	if err := UpsertEnvVar(filepath.Join(t.TempDir(), ".env"), " ", "x"); err == nil {
		t.Fatalf("expected empty key error")
	}

	d := t.TempDir()
	blocker := filepath.Join(d, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := UpsertEnvVar(filepath.Join(blocker, ".env"), "K", "V"); err == nil {
		t.Fatalf("expected failure under a regular file")
	}
}
