package diagnosis

import (
	"fmt"
	"regexp"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// maxFilteredLogLines caps how many log lines survive filtering.
const maxFilteredLogLines = 10

// logKeywords marks a line as error-relevant.
var logKeywords = []string{"error", "fail", "exception", "timeout", "unhealthy", "warning"}

// httpErrorPattern matches 4xx/5xx status codes appearing as standalone numbers.
var httpErrorPattern = regexp.MustCompile(`\b[45]\d{2}\b`)

// FilterLogs keeps error-relevant lines (keyword or HTTP error status) plus
// the line immediately after each match, capped at 10 lines. When nothing
// matches, the last 3 lines are kept as minimal context.
func FilterLogs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")

	var kept []string
	for i := 0; i < len(lines) && len(kept) < maxFilteredLogLines; i++ {
		if !logLineRelevant(lines[i]) {
			continue
		}
		kept = append(kept, lines[i])
		if i+1 < len(lines) && len(kept) < maxFilteredLogLines {
			kept = append(kept, lines[i+1])
			i++
		}
	}
	if len(kept) > 0 {
		return kept
	}

	tail := 3
	if len(lines) < tail {
		tail = len(lines)
	}
	return lines[len(lines)-tail:]
}

func logLineRelevant(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range logKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return httpErrorPattern.MatchString(line)
}

// DedupEvents collapses events sharing (type, reason, message) into one line
// each, annotated with an occurrence count. First-occurrence order is
// preserved, so feeding the output back through is a no-op.
func DedupEvents(events []corev1.Event) []string {
	type group struct {
		index int
		count int
		event corev1.Event
	}

	groups := make(map[string]*group)
	var order []string
	for _, ev := range events {
		key := ev.Type + "\x00" + ev.Reason + "\x00" + ev.Message
		if g, ok := groups[key]; ok {
			g.count++
			continue
		}
		groups[key] = &group{index: len(order), count: 1, event: ev}
		order = append(order, key)
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		g := groups[key]
		line := fmt.Sprintf("- [%s] %s", g.event.Type, g.event.Reason)
		if g.count > 1 {
			line += fmt.Sprintf(" (x%d times)", g.count)
		}
		line += fmt.Sprintf(": %s", g.event.Message)
		out = append(out, line)
	}
	return out
}

// EstimateTokens roughly estimates the LLM token count of a prompt. Korean
// characters weigh about 2.5 tokens; everything else about 0.25. Used only
// for observability logging.
func EstimateTokens(text string) int {
	var estimate float64
	for _, r := range text {
		if isKorean(r) {
			estimate += 2.5
		} else {
			estimate += 0.25
		}
	}
	return int(estimate)
}

// isKorean reports whether the rune is a Hangul syllable or jamo.
func isKorean(r rune) bool {
	switch {
	case r >= 0xAC00 && r <= 0xD7A3: // syllables
		return true
	case r >= 0x1100 && r <= 0x11FF: // jamo
		return true
	case r >= 0x3130 && r <= 0x318F: // compatibility jamo
		return true
	default:
		return false
	}
}
