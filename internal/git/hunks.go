package git

import (
	"regexp"
	"strconv"
	"strings"
)

// LineType summarizes the kind of lines a hunk changes
type LineType string

const (
	LineAddition     LineType = "addition"
	LineDeletion     LineType = "deletion"
	LineModification LineType = "modification"
)

// DiffHunk represents a single hunk of changes in a diff.
// Content is the raw hunk text: the header line followed by the body lines,
// each keeping its leading '+', '-' or ' ' marker.
type DiffHunk struct {
	Header   string   `json:"header"`
	Content  string   `json:"content"`
	LineType LineType `json:"lineType"`
	OldStart int      `json:"oldStart"`
	OldCount int      `json:"oldCount"`
	NewStart int      `json:"newStart"`
	NewCount int      `json:"newCount"`
}

// Lines returns the body lines of the hunk without the header
func (h DiffHunk) Lines() []string {
	_, body, found := strings.Cut(h.Content, "\n")
	if !found || body == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(body, "\n"), "\n")
}

// Regex to match hunk headers: @@ -old_start,old_count +new_start,new_count @@
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks parses the hunks of a single-file unified diff. File headers
// ("---", "+++", "diff --git") are skipped.
func ParseHunks(diffText string) []DiffHunk {
	hunks := []DiffHunk{}
	if strings.TrimSpace(diffText) == "" {
		return hunks
	}

	var current *DiffHunk
	var hunkLines []string
	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(hunkLines, "\n") + "\n"
		current.LineType = classifyLines(hunkLines[1:])
		hunks = append(hunks, *current)
		current = nil
		hunkLines = nil
	}

	for _, line := range strings.Split(strings.TrimSuffix(diffText, "\n"), "\n") {
		if match := hunkHeaderRegex.FindStringSubmatch(line); match != nil {
			flush()
			current = &DiffHunk{
				Header:   line,
				OldStart: parseInt(match[1]),
				OldCount: parseCount(match[2]),
				NewStart: parseInt(match[3]),
				NewCount: parseCount(match[4]),
			}
			hunkLines = []string{line}
			continue
		}
		if current == nil {
			// File header lines before the first hunk
			continue
		}
		hunkLines = append(hunkLines, line)
	}
	flush()
	return hunks
}

func classifyLines(lines []string) LineType {
	var added, removed bool
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "+"):
			added = true
		case strings.HasPrefix(l, "-"):
			removed = true
		}
	}
	switch {
	case added && !removed:
		return LineAddition
	case removed && !added:
		return LineDeletion
	default:
		return LineModification
	}
}

// parseCount parses a hunk range count. An omitted count means one line.
func parseCount(s string) int {
	if s == "" {
		return 1
	}
	return parseInt(s)
}

// parseInt parses a string to int, returns 0 if empty or invalid
func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
