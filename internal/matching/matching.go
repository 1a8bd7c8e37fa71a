// Package matching scores postings against a user's declared skills.
package matching

import (
	"strings"

	"github.com/jonathan/talent-board/internal/types"
)

// FallbackCap is how many recent postings a user receives when nothing
// matches their skills (or they declared none). Digests are never empty
// while postings exist.
const FallbackCap = 5

// Relevant reports whether any user skill and any posting skill match
// by case-insensitive symmetric substring. "react" matches "react.js"
// in either direction; deliberately lenient so digests rarely come up
// empty on tag spelling variants.
func Relevant(postingSkills, userSkills []string) bool {
	for _, us := range userSkills {
		u := strings.ToLower(strings.TrimSpace(us))
		if u == "" {
			continue
		}
		for _, ps := range postingSkills {
			p := strings.ToLower(strings.TrimSpace(ps))
			if p == "" {
				continue
			}
			if strings.Contains(p, u) || strings.Contains(u, p) {
				return true
			}
		}
	}
	return false
}

// SelectForUser picks the postings a user's digest should contain:
// the relevant subset in the order given (callers pass recency order),
// or the first FallbackCap postings when the user has no skills or
// nothing matched.
func SelectForUser(postings []types.Posting, userSkills []string) []types.Posting {
	var matched []types.Posting
	if len(userSkills) > 0 {
		for _, p := range postings {
			if Relevant(p.Skills, userSkills) {
				matched = append(matched, p)
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}

	if len(postings) > FallbackCap {
		return postings[:FallbackCap]
	}
	return postings
}
