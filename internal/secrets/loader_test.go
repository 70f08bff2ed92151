package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dsn")
	if err := os.WriteFile(file, []byte("  postgres://file  \n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}
	t.Setenv("MATCHDAY_TEST_DSN", " postgres://env ")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "file wins", src: Source{File: file, Env: "MATCHDAY_TEST_DSN", Value: "postgres://inline"}, expect: "postgres://file"},
		{name: "env before inline", src: Source{Env: "MATCHDAY_TEST_DSN", Value: "postgres://inline"}, expect: "postgres://env"},
		{name: "unset env falls back to inline", src: Source{Env: "MATCHDAY_TEST_UNSET", Value: " postgres://inline "}, expect: "postgres://inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	tests := []struct {
		name     string
		src      Source
		contains string
	}{
		{name: "nothing configured", src: Source{Name: "database url"}, contains: "database url is not configured"},
		{name: "empty file", src: Source{File: empty, Value: "ignored"}, contains: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "missing")}, contains: "reading secret from file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Fatalf("expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}
