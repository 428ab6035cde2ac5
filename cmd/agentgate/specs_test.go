package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeSpecFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := `# Shopping Guide Agent

## Role
A conversational shopping guide for consumers.

## Goals
- Recommend products matching the user's stated needs
`
	if err := os.WriteFile(filepath.Join(dir, "shopping_guide.md"), []byte(doc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return dir
}

func TestSpecsShow_NormalizesName(t *testing.T) {
	prev := specsDir
	specsDir = writeSpecFixture(t)
	t.Cleanup(func() { specsDir = prev })

	tests := []struct {
		name string
		arg  string
	}{
		{name: "exact name", arg: "shopping_guide"},
		{name: "spaces and case", arg: "Shopping Guide"},
		{name: "surrounding whitespace", arg: "  shopping_guide  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)

			if err := specsShowCmd.RunE(cmd, []string{tt.arg}); err != nil {
				t.Fatalf("show %q: %v", tt.arg, err)
			}
			if !strings.Contains(out.String(), `"shopping_guide"`) {
				t.Errorf("show %q output = %s, want spec name shopping_guide", tt.arg, out.String())
			}
		})
	}
}

func TestSpecsShow_MissingSpec(t *testing.T) {
	prev := specsDir
	specsDir = writeSpecFixture(t)
	t.Cleanup(func() { specsDir = prev })

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	err := specsShowCmd.RunE(cmd, []string{"no_such_agent"})
	if err == nil {
		t.Fatal("expected an error for a spec with no backing document")
	}
	if !strings.Contains(err.Error(), "no_such_agent") {
		t.Errorf("error = %v, want the requested name", err)
	}
}
