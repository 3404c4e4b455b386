package counter

import "golang.org/x/mod/semver"

// Version information for the shared counter.
const (
	// Version is the current release, without the leading "v".
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the library build.
type Info struct {
	// Version is the canonical semantic version, e.g. "v0.1.0".
	Version string

	// Release is the major.minor line, e.g. "v0.1".
	Release string

	// Iterations is the number of updates per goroutine in Run.
	Iterations int

	// Valid reports whether Version is a well-formed semantic version.
	Valid bool
}

// GetInfo returns information about the library.
//
// Example:
//
//	info := counter.GetInfo()
//	fmt.Printf("sharedcounter %s (%d iterations)\n", info.Version, info.Iterations)
func GetInfo() Info {
	return infoFor(Version)
}

func infoFor(version string) Info {
	v := "v" + version
	return Info{
		Version:    semver.Canonical(v),
		Release:    semver.MajorMinor(v),
		Iterations: Iterations,
		Valid:      semver.IsValid(v),
	}
}
