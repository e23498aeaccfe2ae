package reasoning

import (
	"fmt"
	"os"
	"strings"
)

// EndMarker separates the reasoning narrative from the prompt section.
const EndMarker = "--- END OF REASONING ---"

const (
	promptCue      = "Generating image with prompt:"
	promptSentinel = "Cartoon"
)

type Kind int

const (
	// Parsed means the end marker was found.
	Parsed Kind = iota
	// Degraded means no marker was found and the text was split at its midpoint.
	Degraded
)

func (k Kind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Document struct {
	Reasoning      string
	OriginalPrompt string
	Kind           Kind
}

func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("error reading reasoning file %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Parse extracts the reasoning and the original prompt from a transcript. It
// is a heuristic tied to one log layout and never fails: without the end
// marker it splits the text in half and reports Degraded.
func Parse(text string) Document {
	parts := strings.Split(text, EndMarker)
	if len(parts) < 2 {
		runes := []rune(text)
		mid := len(runes) / 2
		return Document{
			Reasoning:      string(runes[:mid]),
			OriginalPrompt: string(runes[mid:]),
			Kind:           Degraded,
		}
	}

	remaining := strings.TrimSpace(parts[1])
	prompt := extractPrompt(remaining)
	if prompt == "" {
		prompt = remaining
	}

	return Document{
		Reasoning:      strings.TrimSpace(parts[0]),
		OriginalPrompt: prompt,
		Kind:           Parsed,
	}
}

func extractPrompt(section string) string {
	lines := strings.Split(section, "\n")
	for i, line := range lines {
		if !isCueLine(line) {
			continue
		}

		var promptLines []string
		for _, l := range lines[i:] {
			if l = strings.TrimSpace(l); l != "" {
				promptLines = append(promptLines, l)
			}
		}
		joined := strings.Join(promptLines, " ")
		return strings.TrimSpace(strings.ReplaceAll(joined, promptCue, ""))
	}
	return ""
}

func isCueLine(line string) bool {
	return strings.Contains(line, promptCue) || strings.HasPrefix(strings.TrimSpace(line), promptSentinel)
}
