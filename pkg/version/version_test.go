package version

import "testing"

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version == "" || info.GitCommit == "" || info.BuildDate == "" {
		t.Fatalf("expected non-empty version info")
	}
}

func TestGetShortCommit(t *testing.T) {
	orig := GitCommit
	defer func() { GitCommit = orig }()

	GitCommit = "abcdef123456"
	if GetShortCommit() != "abcdef1" {
		t.Fatalf("expected short commit")
	}
	GitCommit = "abc"
	if GetShortCommit() != "abc" {
		t.Fatalf("expected short hash kept as is")
	}
}

func TestString(t *testing.T) {
	origV, origC, origB := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origV, origC, origB }()

	Version, GitCommit, BuildDate = "v1.2.3", "abcdef123456", "2026-01-02"
	if got := String(); got != "v1.2.3 (abcdef1, built 2026-01-02)" {
		t.Fatalf("unexpected version string %q", got)
	}
}
