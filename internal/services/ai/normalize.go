package ai

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxSkills       = 15
	maxTechnologies = 8
	maxLines        = 3
	maxSentences    = 3
	maxTokenLength  = 50  // exclusive, in runes
	maxLineLength   = 150 // exclusive, in runes
	minListTokens   = 3
)

var (
	// Leading chatter the model sometimes puts before the answer.
	boilerplatePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^here(?:'s| is| are)\b[^:\n]*:\s*`),
		regexp.MustCompile(`(?i)^sure\b[!,.]?\s*`),
		regexp.MustCompile(`(?i)^(?:suggested |relevant |key |recommended )?(?:skills|technologies|tech stack)\s*:\s*`),
		regexp.MustCompile(`(?i)^(?:project description|description|about me|professional summary|summary)\s*:\s*`),
	}

	listMarker     = regexp.MustCompile(`^(?:[-*•·]+|\d+[.)])\s*`)
	listSeparators = regexp.MustCompile(`[,;\n]+`)
	commaOrSpace   = regexp.MustCompile(`[,\s]+`)
	introLine      = regexp.MustCompile(`(?i)^here(?:'s| is| are)\b.*:$`)

	connectorWords = map[string]bool{
		"and":          true,
		"also":         true,
		"additionally": true,
		"furthermore":  true,
		"moreover":     true,
	}
)

// Normalize turns a raw completion into cleaned suggestions according to the
// rules for contextTag. It never returns nil.
func Normalize(raw, contextTag string) []string {
	text := stripMarkdownCodeBlock(raw)

	switch contextTag {
	case ContextSkills:
		return normalizeList(text, maxSkills)
	case ContextProjectTechnologies:
		return normalizeList(text, maxTechnologies)
	case ContextProjectDescription, ContextAboutMe:
		return normalizeParagraph(text)
	default:
		return normalizeLines(text)
	}
}

func stripBoilerplate(s string) string {
	s = strings.TrimSpace(s)
	for changed := true; changed; {
		changed = false
		for _, re := range boilerplatePrefixes {
			if loc := re.FindStringIndex(s); loc != nil && loc[1] > 0 {
				s = strings.TrimSpace(s[loc[1]:])
				changed = true
			}
		}
	}
	return s
}

func cleanToken(s string) string {
	s = strings.TrimSpace(s)
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	return strings.TrimSpace(s)
}

func splitTokens(text string, sep *regexp.Regexp, limit int) []string {
	out := []string{}
	for _, part := range sep.Split(text, -1) {
		tok := cleanToken(part)
		if tok == "" || utf8.RuneCountInString(tok) >= maxTokenLength {
			continue
		}
		if connectorWords[strings.ToLower(tok)] {
			continue
		}
		out = append(out, tok)
		if len(out) == limit {
			break
		}
	}
	return out
}

func normalizeList(text string, limit int) []string {
	text = stripBoilerplate(text)
	tokens := splitTokens(text, listSeparators, limit)
	if len(tokens) < minListTokens {
		tokens = splitTokens(text, commaOrSpace, limit)
	}
	return tokens
}

func normalizeParagraph(text string) []string {
	text = stripBoilerplate(text)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, "\"'`")

	if strings.Trim(text, ". ") == "" {
		return []string{}
	}
	if ends := sentenceEnds(text); len(ends) > maxSentences {
		text = text[:ends[maxSentences-1]]
	}
	text = strings.TrimSpace(text)
	if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return []string{text}
}

// sentenceEnds returns the offsets just past each period that closes a
// non-empty sentence in whitespace-collapsed text. A period followed by
// anything but a space, as in "Node.js" or "7.5", is not a sentence end.
func sentenceEnds(text string) []int {
	var ends []int
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' || (i+1 < len(text) && text[i+1] != ' ') {
			continue
		}
		if strings.Trim(text[start:i], ". ") != "" {
			ends = append(ends, i+1)
		}
		start = i + 1
	}
	return ends
}

func normalizeLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		line = strings.Trim(line, "\"")
		if line == "" || utf8.RuneCountInString(line) >= maxLineLength || introLine.MatchString(line) {
			continue
		}
		out = append(out, line)
		if len(out) == maxLines {
			break
		}
	}
	return out
}

// stripMarkdownCodeBlock removes leading and trailing markdown code block fences.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop an info string such as ```text
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " ,") {
			s = s[nl+1:]
		}
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
