package engine

import (
	"fmt"
	"strings"

	"mindscope/internal/entity"
	"mindscope/internal/resolve"
)

// Resolution is one key that resolved to exactly one entity.
type Resolution struct {
	Key    string
	Entity entity.Ref
}

// Ambiguity is one key that matched two or more entities at the same
// tier. The candidate order is not meaningful; display ordering is the
// caller's decision.
type Ambiguity struct {
	Key        string
	Candidates []entity.Ref
}

// KeyError is a collaborator failure scoped to one key.
type KeyError struct {
	Key string
	Err error
}

// Summary accounts for every scanned mention, index-aligned with nothing:
// keys appear in scan order within each bucket.
type Summary struct {
	Resolved   []Resolution
	Ambiguous  []Ambiguity
	Unresolved []string
	Failed     []KeyError

	MentionsTruncated bool
	MentionsDropped   int
}

// summarize buckets the per-key outcomes.
func summarize(outcomes []resolve.Outcome) Summary {
	var s Summary
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			s.Failed = append(s.Failed, KeyError{Key: out.Key, Err: out.Err})
		case out.Status == resolve.StatusResolved:
			s.Resolved = append(s.Resolved, Resolution{Key: out.Key, Entity: *out.Entity})
		case out.Status == resolve.StatusAmbiguous:
			s.Ambiguous = append(s.Ambiguous, Ambiguity{Key: out.Key, Candidates: out.Candidates})
		default:
			s.Unresolved = append(s.Unresolved, out.Key)
		}
	}
	return s
}

// String renders the summary as the plain statements a requester should
// see, so unresolved and ambiguous mentions are corrected rather than
// silently omitted.
func (s Summary) String() string {
	var b strings.Builder
	for _, r := range s.Resolved {
		fmt.Fprintf(&b, "using %s %q for @%s\n", r.Entity.Category, r.Entity.DisplayName, r.Key)
	}
	for _, a := range s.Ambiguous {
		names := make([]string, len(a.Candidates))
		for i, c := range a.Candidates {
			names[i] = fmt.Sprintf("%q", c.DisplayName)
		}
		fmt.Fprintf(&b, "found %d %ss named @%s (%s) - which one?\n",
			len(a.Candidates), a.Candidates[0].Category, a.Key, strings.Join(names, ", "))
	}
	for _, key := range s.Unresolved {
		fmt.Fprintf(&b, "could not find @%s\n", key)
	}
	for _, f := range s.Failed {
		fmt.Fprintf(&b, "lookup failed for @%s: %v\n", f.Key, f.Err)
	}
	if s.MentionsDropped > 0 {
		fmt.Fprintf(&b, "%d mention(s) beyond the limit were ignored\n", s.MentionsDropped)
	}
	return b.String()
}
