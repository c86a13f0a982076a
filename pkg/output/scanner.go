package output

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	succeededSuffix = " - succeeded"
	failedSuffix    = " - failed"
)

// promptMarker is appended by the interpreter after every output chunk.
const promptMarker = "\n>"

// eventTagRegex matches bracketed action-trace tags like [looking] or
// [opening door - succeeded], together with one trailing newline when present.
var eventTagRegex = regexp.MustCompile(`\[[^\]]+\]\n?`)

// UnbalancedTraceError reports a malformed action trace: a closing tag with no
// matching open tag, or tags left open after a success was recorded. It means
// the interpreter and the tracker have desynchronized, so no state derived
// from the text can be trusted.
type UnbalancedTraceError struct {
	Tag  string   // closing tag that had no open counterpart, if any
	Open []string // tags still open at end of scan
}

func (e *UnbalancedTraceError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("output: closing event tag %q has no matching open tag", e.Tag)
	}
	return fmt.Sprintf("output: event tags still open at end of scan: %v", e.Open)
}

// StripPrompt removes the trailing input-prompt marker from an output chunk.
// It must run before any tag matching; the marker is not part of the tag
// grammar and would corrupt block matching at the tail of the text.
func StripPrompt(text string) string {
	return strings.TrimSuffix(text, promptMarker)
}

// ExtractEvents scans text for action-trace tags, removes them, and returns
// the names of the actions that completed successfully, in encounter order.
//
// An opening tag [name] pushes name onto a stack. A closing tag
// [name - failed] pops it silently; [name - succeeded] pops it and records
// the name. Names containing parentheses are sub-rules: they balance the
// stack but are excluded from the result.
func ExtractEvents(text string) ([]string, string, error) {
	var events []string
	var open []string

	spans := eventTagRegex.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return nil, text, nil
	}

	var clean strings.Builder
	clean.Grow(len(text))
	last := 0
	for _, span := range spans {
		// A bracket right after ESC is an ANSI control sequence, not a tag.
		if span[0] > 0 && text[span[0]-1] == '\x1b' {
			clean.WriteString(text[last:span[1]])
			last = span[1]
			continue
		}

		clean.WriteString(text[last:span[0]])
		last = span[1]

		tag := strings.TrimSpace(text[span[0]:span[1]])
		tag = tag[1 : len(tag)-1] // strip '[' and ']'

		switch {
		case strings.Contains(tag, failedSuffix):
			name := tag[:strings.Index(tag, failedSuffix)]
			var err error
			if open, err = popTag(open, name); err != nil {
				return nil, "", err
			}
		case strings.Contains(tag, succeededSuffix):
			name := tag[:strings.Index(tag, succeededSuffix)]
			var err error
			if open, err = popTag(open, name); err != nil {
				return nil, "", err
			}
			events = append(events, name)
		default:
			open = append(open, tag)
		}
	}
	clean.WriteString(text[last:])

	// Sub-rule tags contain grouping punctuation and are trace noise.
	filtered := events[:0]
	for _, name := range events {
		if !strings.ContainsAny(name, "()") {
			filtered = append(filtered, name)
		}
	}
	events = filtered

	if len(events) > 0 && len(open) > 0 {
		return nil, "", &UnbalancedTraceError{Open: open}
	}
	return events, clean.String(), nil
}

// popTag removes the first occurrence of name from the open-tag stack.
func popTag(open []string, name string) ([]string, error) {
	for i, tag := range open {
		if tag == name {
			return append(open[:i], open[i+1:]...), nil
		}
	}
	return nil, &UnbalancedTraceError{Tag: name}
}
