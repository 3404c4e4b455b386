package main

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestProgramOutput re-executes the test binary as the program and checks that
// the program prints 0 as its first and only line before the test framework output.
func TestProgramOutput(t *testing.T) {
	if os.Getenv("SHAREDCOUNTER_MAIN") == "1" {
		main()
		return
	}
	if testing.Short() {
		t.Skip("runs the full program")
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestProgramOutput$")
	cmd.Env = append(os.Environ(), "SHAREDCOUNTER_MAIN=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("program failed: %v\nstderr:\n%s", err, stderr.String())
	}

	// The child prints the program line before the testing framework's own
	// PASS line.
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) == 0 || lines[0] != "0" {
		t.Errorf("stdout = %q, want first line \"0\"", stdout.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr:\n%s", stderr.String())
	}
}
