// File: internal/textengine/metadata.go
// Author: momentics <momentics@gmail.com>

package textengine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TextMetadata mirrors the text section of the engine metadata schema.
type TextMetadata struct {
	LineCount      int         `json:"line_count"`
	WordCount      int         `json:"word_count"`
	CharacterCount int         `json:"character_count"`
	Headers        []string    `json:"headers,omitempty"`
	Links          [][2]string `json:"links,omitempty"`
	CodeBlocks     [][2]string `json:"code_blocks,omitempty"`
}

var linkRe = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)

func analyze(text string, markdown bool) TextMetadata {
	m := TextMetadata{
		LineCount:      countLines(text),
		WordCount:      len(strings.Fields(text)),
		CharacterCount: utf8.RuneCountInString(text),
	}
	if !markdown {
		return m
	}

	var (
		inFence bool
		lang    string
		code    strings.Builder
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				m.CodeBlocks = append(m.CodeBlocks, [2]string{lang, strings.TrimSuffix(code.String(), "\n")})
				code.Reset()
				inFence = false
			} else {
				inFence = true
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		if inFence {
			code.WriteString(line)
			code.WriteByte('\n')
			continue
		}
		if h, ok := atxHeader(trimmed); ok {
			m.Headers = append(m.Headers, h)
		}
		for _, sub := range linkRe.FindAllStringSubmatch(line, -1) {
			m.Links = append(m.Links, [2]string{sub[1], sub[2]})
		}
	}
	return m
}

// atxHeader recognizes "# Title" through "###### Title".
func atxHeader(line string) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return "", false
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(rest, "# ")), true
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func (m TextMetadata) toMap() map[string]any {
	out := map[string]any{
		"format_type":     "text",
		"line_count":      m.LineCount,
		"word_count":      m.WordCount,
		"character_count": m.CharacterCount,
	}
	if len(m.Headers) > 0 {
		out["headers"] = m.Headers
	}
	if len(m.Links) > 0 {
		out["links"] = m.Links
	}
	if len(m.CodeBlocks) > 0 {
		out["code_blocks"] = m.CodeBlocks
	}
	return out
}
