package feedback

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const boldMarker = "**"

var (
	headingPrefix = regexp.MustCompile(`^#{1,6}\s+`)
	numberedItem  = regexp.MustCompile(`^([1-9][0-9]?)[.)]\s+(.*)$`)
	ruleLine      = regexp.MustCompile(`^(?:-{3,}|={3,}|_{3,})$`)
)

// bulletGlyphs are the leading list markers seen in review payloads.
const bulletGlyphs = "-*+•●○◦▪■►▶➤–—·✓✔"

func parseText(text string) Result {
	b := newBuilder()
	current := sectionNone

	for _, raw := range strings.Split(text, "\n") {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}

		if sec, rest, ok := matchHeader(line); ok {
			current = sec
			switch sec {
			case sectionScore:
				b.score = scoreFromText(rest)
			case sectionAdditional:
				b.add(sec, rest)
			}
			continue
		}

		if isRule(line) {
			continue
		}

		if item, ok := stripItemMarker(line); ok {
			b.add(current, item)
			continue
		}

		// A known category marks a feedback row; the row belongs to the
		// header it sits under.
		if category, content, ok := splitPipeRow(line); ok {
			if lookupSection(category) != sectionNone {
				b.add(current, content)
			}
			continue
		}

		switch current {
		case sectionAdditional:
			b.add(current, line)
		case sectionScore:
			// "Resume score:" followed by the number on its own line.
			if !b.score.Known() {
				b.score = scoreFromText(line)
			}
		}
	}

	return b.result()
}

func normalizeLine(raw string) string {
	line := strings.TrimSpace(stripEmphasis(strings.TrimRight(raw, "\r")))
	return headingPrefix.ReplaceAllString(line, "")
}

// stripEmphasis removes matched pairs of the bold marker. An unpaired
// trailing marker is left in place.
func stripEmphasis(s string) string {
	if !strings.Contains(s, boldMarker) {
		return s
	}
	var out strings.Builder
	rest := s
	for {
		open := strings.Index(rest, boldMarker)
		if open < 0 {
			break
		}
		end := strings.Index(rest[open+len(boldMarker):], boldMarker)
		if end < 0 {
			break
		}
		end += open + len(boldMarker)
		out.WriteString(rest[:open])
		out.WriteString(rest[open+len(boldMarker) : end])
		rest = rest[end+len(boldMarker):]
	}
	out.WriteString(rest)
	return out.String()
}

func isRule(line string) bool {
	return ruleLine.MatchString(line)
}

// stripItemMarker returns the content of a bulleted or numbered line.
func stripItemMarker(line string) (string, bool) {
	if m := numberedItem.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[2]), true
	}
	r, size := utf8.DecodeRuneInString(line)
	if size == 0 || !strings.ContainsRune(bulletGlyphs, r) {
		return "", false
	}
	rest := line[size:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// splitPipeRow splits "category | feedback" and markdown table rows.
func splitPipeRow(line string) (string, string, bool) {
	if !strings.Contains(line, "|") {
		return "", "", false
	}
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")

	var cells []string
	for _, cell := range strings.Split(trimmed, "|") {
		if c := strings.TrimSpace(cell); c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) < 2 {
		return "", "", false
	}
	return cells[0], strings.Join(cells[1:], " | "), true
}
