// Package keywords mines a few salient terms out of free chat text so they can
// feed the preference snapshot.
package keywords

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxKeywords is the most terms Extract returns for one message.
const MaxKeywords = 5

var nonWord = regexp.MustCompile(`\W+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the and but for nor yet not are was were been being has have had does did
		will would could should shall may might must can this that these those
		you your yours him his her hers its our ours they them their theirs what
		which who whom whose when where why how all any both each few more most
		other some such only own same than too very just also now here there then
		from into onto with without about above below over under again once off
		out ourselves yourself yourselves himself herself itself themselves
		she because until while during before after between through against
		want wants need needs looking look find show something anything get got
		please thanks thank hey hello like maybe`) {
		stopWords[w] = struct{}{}
	}
}

// Extract lowercases text, splits it on non-word runs, drops short tokens and
// stop words, and returns up to MaxKeywords unique terms in first-seen order.
func Extract(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, MaxKeywords)
	for _, tok := range nonWord.Split(text, -1) {
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == MaxKeywords {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
