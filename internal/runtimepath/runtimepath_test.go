package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/spotlight-dimmer-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if !strings.HasSuffix(socket, "/spotlight-dimmer.sock") {
		t.Fatalf("SocketPath() = %q, missing suffix", socket)
	}
}

func TestLogPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_STATE_HOME", td)

	got, err := LogPath()
	if err != nil {
		t.Fatalf("LogPath() error: %v", err)
	}
	want := filepath.Join(td, "spotlight-dimmer", "daemon.log")
	if got != want {
		t.Fatalf("LogPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", td)
	got, err = LogPath()
	if err != nil {
		t.Fatalf("LogPath() error: %v", err)
	}
	want = filepath.Join(td, ".local", "state", "spotlight-dimmer", "daemon.log")
	if got != want {
		t.Fatalf("LogPath() = %q, want %q", got, want)
	}
}
