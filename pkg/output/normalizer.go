package output

import (
	"regexp"
	"sync"
)

// DefaultInfoTags are the side-channel facts the interpreter can report when
// enabled via the `tw-extra-infos` handshake command.
var DefaultInfoTags = []string{"description", "inventory", "score"}

var (
	infoRegexMu    sync.Mutex
	infoRegexCache = map[string]*regexp.Regexp{}
)

func infoRegex(tag string) *regexp.Regexp {
	infoRegexMu.Lock()
	defer infoRegexMu.Unlock()
	re, ok := infoRegexCache[tag]
	if !ok {
		re = regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(tag) + `>\n(.*)</` + regexp.QuoteMeta(tag) + `>`)
		infoRegexCache[tag] = re
	}
	return re
}

// ExtractInfos pulls side-channel blocks like <score>\n...\n</score> out of
// text for each of the given tags. Each block's inner content is returned
// verbatim, except that action-trace tags emitted inside the block during the
// same turn are resolved and discarded. Matched blocks are removed from the
// returned text.
func ExtractInfos(text string, tags []string) (map[string]string, string, error) {
	infos := make(map[string]string)
	for _, tag := range tags {
		re := infoRegex(tag)
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		_, inner, err := ExtractEvents(match[1])
		if err != nil {
			return nil, "", err
		}
		infos[tag] = inner
		text = re.ReplaceAllString(text, "")
	}
	return infos, text, nil
}

// Normalizer decomposes one turn of raw interpreter output into clean
// narrative text, side-channel facts, and completed-action events. It is a
// pure function of its input and the configured tag set.
type Normalizer struct {
	tags []string
}

// NewNormalizer returns a Normalizer that extracts the given side-channel
// tags. With no tags it extracts the default set.
func NewNormalizer(tags ...string) *Normalizer {
	if len(tags) == 0 {
		tags = DefaultInfoTags
	}
	return &Normalizer{tags: append([]string(nil), tags...)}
}

// Normalize strips the trailing prompt marker, extracts side-channel blocks,
// then extracts remaining top-level action events. The order matters: the
// prompt is not part of the tag grammar, and events inside side-channel
// blocks must not leak into the top-level event list.
func (n *Normalizer) Normalize(raw string) (string, map[string]string, []string, error) {
	text := StripPrompt(raw)

	infos, text, err := ExtractInfos(text, n.tags)
	if err != nil {
		return "", nil, nil, err
	}

	events, text, err := ExtractEvents(text)
	if err != nil {
		return "", nil, nil, err
	}
	return text, infos, events, nil
}
