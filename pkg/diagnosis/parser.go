package diagnosis

import (
	"html"
	"regexp"
	"strings"
)

var (
	// numberedStep splits the solutions section into steps.
	numberedStep = regexp.MustCompile(`(?m)^\d+\.\s`)

	// yamlFence captures fenced YAML blocks inside a solution step.
	yamlFence = regexp.MustCompile("(?s)```yaml\\s*\\n(.*?)```")

	// cliTools are command words that mark a line as a shell command.
	cliTools = []string{"kubectl", "docker", "helm", "aws", "gcloud", "az", "eksctl", "k9s"}

	// strayShellWord removes dangling bash/sh tokens the model sometimes
	// appends after commands.
	strayShellWord = regexp.MustCompile(`(?m)\s*\b(bash|sh)\s*$`)
)

// parsed is the structured form of a model reply.
type parsed struct {
	rootCause   string
	solutions   []string
	preventions []string
}

// parseReply splits the reply on the three fixed headings. ok is false when
// a heading is missing or the solution list came out empty; callers then use
// the fallback table.
func parseReply(reply string) (parsed, bool) {
	var p parsed

	rootIdx := strings.Index(reply, headingRootCause)
	solIdx := strings.Index(reply, headingSolutions)
	prevIdx := strings.Index(reply, headingPrevention)
	if rootIdx < 0 || solIdx < 0 || prevIdx < 0 || !(rootIdx < solIdx && solIdx < prevIdx) {
		return p, false
	}

	p.rootCause = cleanMarkdown(strings.TrimSpace(reply[rootIdx+len(headingRootCause) : solIdx]))
	p.solutions = parseSolutions(reply[solIdx+len(headingSolutions) : prevIdx])
	p.preventions = parsePreventions(reply[prevIdx+len(headingPrevention):])

	if p.rootCause == "" || len(p.solutions) == 0 {
		return p, false
	}
	return p, true
}

// parseSolutions splits the section into numbered steps and post-formats
// each one.
func parseSolutions(section string) []string {
	section = strings.TrimSpace(section)
	if section == "" {
		return nil
	}

	locs := numberedStep.FindAllStringIndex(section, -1)
	if len(locs) == 0 {
		return nil
	}

	var steps []string
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		step := strings.TrimSpace(section[loc[1]:end])
		if step == "" {
			continue
		}
		steps = append(steps, formatSolutionStep(step))
	}
	return steps
}

// formatSolutionStep applies the display post-processing: YAML blocks become
// copyable divs, CLI lines become command divs, markdown noise is stripped.
func formatSolutionStep(step string) string {
	// Pull fenced YAML out first so its content is not treated as prose.
	step = yamlFence.ReplaceAllStringFunc(step, func(match string) string {
		groups := yamlFence.FindStringSubmatch(match)
		body := strings.TrimRight(groups[1], "\n")
		return `<div class="yaml-block" data-copy="true">` + html.EscapeString(body) + `</div>`
	})

	lines := strings.Split(step, "\n")
	for i, line := range lines {
		if isCommandLine(line) {
			cmd := strayShellWord.ReplaceAllString(strings.TrimSpace(line), "")
			cmd = strings.TrimSuffix(cmd, ":")
			escaped := strings.ReplaceAll(cmd, "<", "&lt;")
			escaped = strings.ReplaceAll(escaped, ">", "&gt;")
			lines[i] = `<div class="kubectl-block">` + escaped + `</div>`
		}
	}
	step = strings.Join(lines, "\n")

	step = strayShellWord.ReplaceAllString(step, "")
	return strings.TrimSpace(cleanMarkdown(step))
}

// isCommandLine reports whether the line starts with a known CLI tool
// followed by non-Korean text.
func isCommandLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, tool := range cliTools {
		if !strings.HasPrefix(trimmed, tool+" ") {
			continue
		}
		rest := strings.TrimPrefix(trimmed, tool+" ")
		for _, r := range rest {
			if isKorean(r) {
				return false
			}
		}
		return true
	}
	return false
}

// parsePreventions keeps bullet lines only, with markers stripped.
func parsePreventions(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") && !strings.HasPrefix(trimmed, "*") {
			continue
		}
		item := strings.TrimSpace(strings.TrimLeft(trimmed, "-*"))
		if item == "" {
			continue
		}
		out = append(out, cleanMarkdown(item))
	}
	return out
}

// cleanMarkdown strips emphasis markers and backticks from the whole string.
// The div markup contains none of them and passes through unchanged; text
// inside the blocks is stripped like any other text.
func cleanMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
