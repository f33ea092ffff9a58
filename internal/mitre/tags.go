// Package mitre splits the free-text tag field carried by sigma alerts into
// ATT&CK tactic and technique labels for display.
package mitre

import "strings"

const tacticPrefix = "attack."

// TagSet holds the parsed labels. Source order is preserved within each list
// and duplicates are kept; the widgets decide how to render repeats.
type TagSet struct {
	Tactics    []string `json:"tactics"`
	Techniques []string `json:"techniques"`
}

// ParseTags splits a comma-delimited tag string. Technique IDs follow the
// "T1xxx" convention and win over the tactic rule; tags matching neither rule
// are dropped. Empty input yields two empty lists.
func ParseTags(raw string) TagSet {
	set := TagSet{Tactics: []string{}, Techniques: []string{}}
	if strings.TrimSpace(raw) == "" {
		return set
	}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		switch {
		case strings.Contains(strings.ToLower(tag), "t1"):
			set.Techniques = append(set.Techniques, strings.ToUpper(tag))
		case strings.Contains(tag, tacticPrefix):
			set.Tactics = append(set.Tactics, tacticLabel(tag))
		}
	}
	return set
}

// tacticLabel turns "attack.initial_access" into "Initial Access".
func tacticLabel(tag string) string {
	trimmed := tag[strings.Index(tag, tacticPrefix)+len(tacticPrefix):]
	words := strings.Split(trimmed, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
