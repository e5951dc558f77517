package version

import (
	"strings"
	"testing"
)

func TestFullIncludesNameAndCommit(t *testing.T) {
	got := Full()
	if !strings.HasPrefix(got, "forge ") || !strings.Contains(got, Commit) {
		t.Fatalf("unexpected version string %q", got)
	}
	if Current().Version != Version {
		t.Fatalf("Current should mirror Version")
	}
}
