package agentspec

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section micro-grammars, one per recognized title. Unknown titles are
// ignored so documents can carry commentary sections freely.

var (
	sectionPattern   = regexp.MustCompile(`^#{1,3}\s+(.+?)\s*$`)
	bulletPattern    = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)
	numberedPattern  = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.*)$`)
	guardrailPattern = regexp.MustCompile(`^\s*\d+[.)]\s+\*\*(.+?)\*\*:?\s*(.*)$`)
	fencePattern     = regexp.MustCompile("^\\s*```\\s*([A-Za-z0-9_-]*)\\s*$")
)

// parseSpec splits the document into titled sections and applies each
// section's grammar. Parsing never fails: unreadable fragments are dropped.
func parseSpec(name, content string) *AgentSpec {
	spec := &AgentSpec{
		Name:       name,
		Inputs:     map[string]string{},
		Outputs:    map[string]string{},
		Guardrails: map[string]string{},
	}

	for title, lines := range splitSections(content) {
		switch strings.ToLower(title) {
		case "role":
			spec.Role = strings.TrimSpace(strings.Join(lines, "\n"))
		case "goals":
			spec.Goals = parseBullets(lines)
		case "inputs":
			spec.Inputs = parseSlots(lines)
		case "outputs":
			spec.Outputs = parseSlots(lines)
		case "guardrails":
			spec.Guardrails = parseGuardrails(lines)
		case "procedure":
			spec.Procedure = parseNumbered(lines)
		case "examples":
			spec.Examples = parseExamples(lines)
		case "failure tags":
			spec.FailureTags = parseBullets(lines)
		}
	}
	return spec
}

// splitSections groups the document's lines under their heading titles.
// Content before the first heading, and the top-level document title, are
// discarded.
func splitSections(content string) map[string][]string {
	sections := map[string][]string{}
	current := ""
	for _, line := range strings.Split(content, "\n") {
		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

// parseBullets collects one entry per bulleted line.
func parseBullets(lines []string) []string {
	var out []string
	for _, line := range lines {
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			if entry := strings.TrimSpace(m[1]); entry != "" {
				out = append(out, entry)
			}
		}
	}
	return out
}

// parseSlots reads "name: description" bullets. A description continues on
// following non-bulleted lines until the next bullet.
func parseSlots(lines []string) map[string]string {
	slots := map[string]string{}
	currentKey := ""
	for _, line := range lines {
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			key, desc, found := strings.Cut(m[1], ":")
			if !found {
				currentKey = ""
				continue
			}
			currentKey = strings.TrimSpace(key)
			slots[currentKey] = strings.TrimSpace(desc)
			continue
		}
		cont := strings.TrimSpace(line)
		if currentKey != "" && cont != "" {
			slots[currentKey] = slots[currentKey] + " " + cont
		}
	}
	return slots
}

// parseGuardrails reads numbered entries whose emphasized lead phrase is
// the key and whose remainder is the rule text.
func parseGuardrails(lines []string) map[string]string {
	rails := map[string]string{}
	currentKey := ""
	for _, line := range lines {
		if m := guardrailPattern.FindStringSubmatch(line); m != nil {
			currentKey = strings.TrimSpace(m[1])
			rails[currentKey] = strings.TrimSpace(m[2])
			continue
		}
		cont := strings.TrimSpace(line)
		if currentKey != "" && cont != "" && !numberedPattern.MatchString(line) {
			rails[currentKey] = strings.TrimSpace(rails[currentKey] + " " + cont)
		}
	}
	return rails
}

// parseNumbered reads one entry per numbered line, kept in numeric order
// regardless of the order they appear in the document.
func parseNumbered(lines []string) []string {
	type step struct {
		n    int
		text string
	}
	var steps []step
	for _, line := range lines {
		if m := numberedPattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			steps = append(steps, step{n: n, text: strings.TrimSpace(m[2])})
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].n < steps[j].n })
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.text)
	}
	return out
}

// parseExamples extracts every fenced block tagged as structured data
// (json or yaml) and decodes it independently. A block that fails to
// decode, or decodes to something without input/output, is skipped:
// examples are advisory and must never abort a spec load.
func parseExamples(lines []string) []Example {
	var examples []Example
	inFence := false
	lang := ""
	var block []string

	flush := func() {
		defer func() { block = nil }()
		body := strings.Join(block, "\n")
		var decoded map[string]any
		switch strings.ToLower(lang) {
		case "json":
			if err := json.Unmarshal([]byte(body), &decoded); err != nil {
				return
			}
		case "yaml", "yml":
			if err := yaml.Unmarshal([]byte(body), &decoded); err != nil {
				return
			}
		default:
			return
		}
		input, hasInput := decoded["input"]
		output, hasOutput := decoded["output"]
		if !hasInput && !hasOutput {
			return
		}
		examples = append(examples, Example{Input: input, Output: output})
	}

	for _, line := range lines {
		if m := fencePattern.FindStringSubmatch(line); m != nil {
			if inFence {
				flush()
				inFence = false
				continue
			}
			inFence = true
			lang = m[1]
			continue
		}
		if inFence {
			block = append(block, line)
		}
	}
	return examples
}
