package snapshot

import "slices"

// Scope is the request-assembly structure the budgeter merges into. The
// engine owns only the fields below the "owned by the engine" marker;
// everything above it belongs to the host request pipeline and is never
// written here.
type Scope struct {
	// Host-owned fields. The engine must leave these byte-identical.
	RequestID   string
	Purpose     string
	Locale      string
	Attachments []string

	// Owned by the engine: id collections and inclusion flags.
	TrackIDs            []string
	TaskIDs             []string
	IncludeTrackDetails bool
	IncludePeople       bool
	IncludeSchedule     bool
	IncludeTaskList     bool
}

func (s *Scope) addTrackID(id string) {
	if !slices.Contains(s.TrackIDs, id) {
		s.TrackIDs = append(s.TrackIDs, id)
	}
}

func (s *Scope) addTaskID(id string) {
	if !slices.Contains(s.TaskIDs, id) {
		s.TaskIDs = append(s.TaskIDs, id)
	}
}

// MergeIntoScope applies each snapshot's contribution to the scope.
// Writes are additive and idempotent; fields the engine does not own are
// untouched.
func MergeIntoScope(scope *Scope, snaps []Snapshot) {
	if scope == nil {
		return
	}
	for _, snap := range snaps {
		snap.mergeInto(scope)
	}
}
