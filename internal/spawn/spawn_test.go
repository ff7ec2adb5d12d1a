package spawn

import (
	"errors"
	"os/exec"
	"testing"
)

func TestSpawn_EmptyCommand(t *testing.T) {
	s := New(nil)
	for _, line := range []string{"", "   ", "\t\n"} {
		err := s.Spawn(line)
		var spawnErr *Error
		if !errors.As(err, &spawnErr) {
			t.Fatalf("Spawn(%q): expected *Error, got %v", line, err)
		}
		if !errors.Is(err, errEmptyCommand) {
			t.Fatalf("Spawn(%q): expected errEmptyCommand, got %v", line, err)
		}
	}
}

func TestSpawn_SplitsFields(t *testing.T) {
	var got []string
	s := New(nil)
	s.start = func(cmd *exec.Cmd) error {
		got = cmd.Args
		return errors.New("not launched")
	}

	err := s.Spawn("  xterm   -e  top ")
	if err == nil {
		t.Fatalf("expected start error to be returned")
	}
	want := []string{"xterm", "-e", "top"}
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args = %v, want %v", got, want)
		}
	}
}

func TestSpawn_MissingBinary(t *testing.T) {
	err := New(nil).Spawn("biscuitwm-definitely-not-installed --flag")
	var spawnErr *Error
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if spawnErr.CommandLine != "biscuitwm-definitely-not-installed --flag" {
		t.Fatalf("unexpected command line %q", spawnErr.CommandLine)
	}
}

func TestSpawn_StartsProcess(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	if err := New(nil).Spawn("true"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
}
