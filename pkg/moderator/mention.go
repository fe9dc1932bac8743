package moderator

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

var (
	leadingPunct  = regexp.MustCompile(`^[\s:,-]+`)
	leadingHandle = regexp.MustCompile(`^@\S+\s+`)
)

// mentionPattern matches the bot's name or any alias, optionally prefixed by
// '@'. Longer names are tried first so an alias that extends the name wins.
func mentionPattern(botName string, aliases []string) *regexp.Regexp {
	seen := make(map[string]struct{})
	var names []string
	for _, n := range append([]string{botName}, aliases...) {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	if len(names) == 0 {
		names = []string{"bot"}
	}

	slices.SortStableFunc(names, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)@?\s*(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Question extracts the question from a chat message addressed to the bot.
// A message is addressed to the bot when it mentions the bot, or when the
// platform's recipient field names it. It returns "" for anything else.
func (m *Moderator) Question(text, to string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if loc := m.mention.FindStringIndex(text); loc != nil {
		q := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
		if q = strings.TrimSpace(leadingPunct.ReplaceAllString(q, "")); q != "" {
			return q
		}
	}

	to = strings.ToLower(strings.TrimSpace(to))
	if to == "" {
		return ""
	}
	if strings.Contains(to, strings.ToLower(m.cfg.BotName)) || strings.Contains(to, "bot") {
		if q := strings.TrimSpace(leadingHandle.ReplaceAllString(text, "")); q != "" {
			return q
		}
		return text
	}
	return ""
}
