package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestRotatingWriterRollsOverBySize(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "datastream.log")
	day := time.Date(2025, 10, 26, 12, 0, 0, 0, time.UTC)

	w := &RotatingWriter{BasePath: base, MaxBytes: 10, now: func() time.Time { return day }}
	if _, err := w.Write([]byte("12345678")); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := w.Path()
	if _, err := w.Write([]byte("abcdef")); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := w.Path()
	t.Cleanup(func() { _ = w.Close() })

	if filepath.Base(first) != "datastream-2025-10-26.log" {
		t.Fatalf("unexpected first file %s", first)
	}
	if filepath.Base(second) != "datastream-2025-10-26-2.log" {
		t.Fatalf("unexpected rollover file %s", second)
	}
}

func TestRotatingWriterRollsOverByDay(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	w := &RotatingWriter{BasePath: filepath.Join(dir, "app"), MaxBytes: 1 << 20, now: func() time.Time { return day }}
	t.Cleanup(func() { _ = w.Close() })

	if _, err := w.Write([]byte("one\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	day = day.Add(2 * time.Minute)
	if _, err := w.Write([]byte("two\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, name := range []string{"app-2025-01-01.log", "app-2025-01-02.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestNewRotatingWriterDash(t *testing.T) {
	w, err := NewRotatingWriter("-", 0)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	if _, err := w.Write([]byte("dropped")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewLoggerWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	logger, closer, err := New(Options{Level: "debug", File: filepath.Join(dir, "cli.log"), MaxBytes: 1 << 20, Stderr: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Component(logger, "test", "encode").WithField("records", 3).Debug("encoded")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(console.String(), "component=datastream/encode") {
		t.Fatalf("console output missing component: %s", console.String())
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "cli-*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "records=3") {
		t.Fatalf("file output missing fields: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("warning"); err != nil || lvl != logrus.WarnLevel {
		t.Fatalf("ParseLevel(warning) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("trace-all"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
