package vocab

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

var keyTerms = []string{
	"guard", "mount", "side control", "back control", "half guard",
	"closed guard", "open guard", "butterfly guard", "spider guard",
	"armbar", "triangle", "kimura", "americana", "rear naked choke",
	"guillotine", "omoplata", "heel hook", "ankle lock",
	"sweep", "escape", "pass", "submission", "takedown", "transition",
}

// WhisperPrompt builds the initial prompt handed to the transcriber so it
// biases decoding toward the sport's vocabulary.
func (d *Dictionary) WhisperPrompt() string {
	return fmt.Sprintf(
		"Brazilian Jiu-Jitsu instructional video featuring techniques including %s. "+
			"The speaker will discuss positions, submissions, grips, and escapes using BJJ terminology.",
		strings.Join(keyTerms, ", "))
}

// CorrectionSystemPrompt is the instruction block sent to the correction
// model. It pins the response contract: replacement lines only, or the
// literal no-op sentence.
func (d *Dictionary) CorrectionSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert Brazilian Jiu-Jitsu (BJJ) instructor helping to identify transcription errors in BJJ instructional videos.\n\n")
	b.WriteString("IMPORTANT: Return ONLY the corrections needed in this exact format:\n\n")
	b.WriteString("```\noriginal text -> corrected text\noriginal text -> corrected text\n```\n\n")
	b.WriteString("Focus on these common BJJ transcription errors:\n\n")

	var wrongs []string
	for wrong := range d.corrections {
		wrongs = append(wrongs, wrong)
	}
	sort.Strings(wrongs)
	for _, wrong := range wrongs {
		fmt.Fprintf(&b, "- %q -> %q\n", wrong, d.corrections[wrong])
	}

	b.WriteString("\nRules:\n")
	b.WriteString("1. Only return lines that need correction\n")
	b.WriteString("2. Use format: \"original -> replacement\"\n")
	b.WriteString("3. Do NOT return the full transcription\n")
	b.WriteString("4. Do NOT add commentary or explanations\n")
	b.WriteString("5. If no corrections needed, return: \"No corrections needed\"\n\n")
	b.WriteString("Example response:\n```\ncoast guard -> closed guard\nhalf cord -> half guard\n```")
	return b.String()
}

// LoadPromptFile replaces the correction system prompt with operator-supplied
// text. Returns the file content trimmed of trailing whitespace.
func LoadPromptFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	text := strings.TrimRight(string(content), "\n\t ")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return text, nil
}
