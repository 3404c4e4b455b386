package counter

import (
	"fmt"
	"testing"
)

func TestVersionConstants(t *testing.T) {
	want := fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
	if Version != want {
		t.Errorf("Version = %q, want %q from components", Version, want)
	}
	if !GetInfo().Valid {
		t.Errorf("Version %q is not valid semver", Version)
	}
}

func TestInfoFor(t *testing.T) {
	tests := []struct {
		version string
		want    Info
	}{
		{"1.2.3", Info{Version: "v1.2.3", Release: "v1.2", Iterations: Iterations, Valid: true}},
		{"1.2", Info{Version: "v1.2.0", Release: "v1.2", Iterations: Iterations, Valid: true}},
		{"1.2.3-rc.1+build", Info{Version: "v1.2.3-rc.1", Release: "v1.2", Iterations: Iterations, Valid: true}},
		{"one", Info{Iterations: Iterations}},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := infoFor(tt.version); got != tt.want {
				t.Errorf("infoFor(%q) = %+v, want %+v", tt.version, got, tt.want)
			}
		})
	}
}

func TestRunN(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 10_000} {
		if got := RunN(n); got != 0 {
			t.Errorf("RunN(%d) = %d, want 0", n, got)
		}
	}
}
