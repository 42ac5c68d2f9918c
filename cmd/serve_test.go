package cmd

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"serve", "--addr", ":9000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("filterDetachArg = %v, want %v", got, want)
	}
}

func TestPIDAndStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "tripgated.pid")

	if err := writePID(pidFile, 4242); err != nil {
		t.Fatal(err)
	}
	pid, err := readPID(pidFile)
	if err != nil {
		t.Fatal(err)
	}
	if pid != 4242 {
		t.Fatalf("readPID = %d, want 4242", pid)
	}

	st := serveRuntimeState{PID: pid, Addr: "127.0.0.1:9999", StartedAt: time.Unix(1700000000, 0).UTC()}
	if err := writeState(statePath(pidFile), st); err != nil {
		t.Fatal(err)
	}
	back, err := readState(statePath(pidFile))
	if err != nil {
		t.Fatal(err)
	}
	if back.Addr != st.Addr || !back.StartedAt.Equal(st.StartedAt) {
		t.Fatalf("readState = %+v, want %+v", back, st)
	}
}

func TestEnsureDaemonNotRunningClearsStalePID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tripgated.pid")
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		t.Fatalf("missing pid file: %v", err)
	}

	// PIDs this large are never live on Linux.
	if err := writePID(pidFile, 1<<30); err != nil {
		t.Fatal(err)
	}
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		t.Fatalf("stale pid: %v", err)
	}
	if _, err := readPID(pidFile); err == nil {
		t.Fatal("stale pid file was not removed")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret("short"); got != "****" {
		t.Fatalf("maskSecret(short) = %q", got)
	}
	if got := maskSecret("abcdefghijklmnopqrst"); got != "abcd...qrst" {
		t.Fatalf("maskSecret(long) = %q", got)
	}
}
