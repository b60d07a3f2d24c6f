package buildinfo

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBuildData_Defaults(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildData(&buf)

	out := buf.String()
	for _, want := range []string{
		"Build version: N/A",
		"Build date: N/A",
		"Build commit: N/A",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q, got:\n%s", want, out)
		}
	}
}

func TestPrintBuildData_InjectedValues(t *testing.T) {
	origV, origD, origC := buildVersion, buildDate, buildCommit
	defer func() { buildVersion, buildDate, buildCommit = origV, origD, origC }()

	buildVersion, buildDate, buildCommit = "v1.2.3", "2025-07-01", "abc1234"

	var buf bytes.Buffer
	PrintBuildData(&buf)

	out := buf.String()
	if !strings.Contains(out, "Build version: v1.2.3") || !strings.Contains(out, "Build commit: abc1234") {
		t.Fatalf("injected values not printed, got:\n%s", out)
	}
}
