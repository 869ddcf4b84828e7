package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// setting returns a build setting recorded at compile time.
func setting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// VersionWithTags returns the version string and build tags if present.
func VersionWithTags() string {
	version := Version()
	if tags := setting("-tags"); tags != "" {
		return fmt.Sprintf("%s (tags: %s)", version, tags)
	}
	return version
}

// String is the --version line: program name, version, the VCS revision it
// was built from and the Go toolchain.
func String(name string) string {
	s := name + " " + VersionWithTags()
	if rev := setting("vcs.revision"); rev != "" {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if setting("vcs.modified") == "true" {
			rev += "-dirty"
		}
		s += " " + rev
	}
	info, ok := debug.ReadBuildInfo()
	if ok && info != nil && info.GoVersion != "" {
		s += " " + info.GoVersion
	}
	return s
}
