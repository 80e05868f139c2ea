// Package snapshot builds size-bounded, category-specific projections of
// resolved entities and merges them into the request's working scope.
// Snapshots are pure value objects: no back-reference to storage, every
// text field truncated to the purpose's per-field ceiling.
package snapshot

import (
	"fmt"

	"mindscope/internal/entity"
)

// Snapshot is the tagged-variant projection of one resolved entity.
// Exactly one concrete type exists per entity category; the category tag
// on the Ref selects the builder, never dynamic field access.
type Snapshot interface {
	// Ref returns the entity this snapshot projects.
	Ref() entity.Ref

	// TextLen is the combined rune length of all text fields, the unit
	// the aggregate budget is accounted in.
	TextLen() int

	// mergeInto writes this snapshot's contribution to the scope.
	// Only fields the engine owns are touched.
	mergeInto(s *Scope)
}

// TrackSnapshot projects a track: name, description, color, task count.
type TrackSnapshot struct {
	Entity      entity.Ref
	Name        string
	Description string
	Color       string
	TaskCount   int
}

func (t TrackSnapshot) Ref() entity.Ref { return t.Entity }

func (t TrackSnapshot) TextLen() int {
	return textLen(t.Name, t.Description, t.Color)
}

func (t TrackSnapshot) mergeInto(s *Scope) {
	s.addTrackID(t.Entity.ID)
	s.IncludeTrackDetails = true
}

// TaskSnapshot projects a task: name, status, assignee.
type TaskSnapshot struct {
	Entity   entity.Ref
	Name     string
	Status   string
	Assignee string
}

func (t TaskSnapshot) Ref() entity.Ref { return t.Entity }

func (t TaskSnapshot) TextLen() int {
	return textLen(t.Name, t.Status, t.Assignee)
}

func (t TaskSnapshot) mergeInto(s *Scope) {
	s.addTaskID(t.Entity.ID)
}

// ContactSnapshot projects a contact: name, role, assignment count.
type ContactSnapshot struct {
	Entity          entity.Ref
	Name            string
	Role            string
	AssignmentCount int
}

func (c ContactSnapshot) Ref() entity.Ref { return c.Entity }

func (c ContactSnapshot) TextLen() int {
	return textLen(c.Name, c.Role)
}

func (c ContactSnapshot) mergeInto(s *Scope) {
	s.IncludePeople = true
}

// BuiltinSnapshot projects a builtin concept. The builtin's stable ID
// selects which purpose-specific inclusion flag it sets.
type BuiltinSnapshot struct {
	Entity entity.Ref
	Name   string
}

func (b BuiltinSnapshot) Ref() entity.Ref { return b.Entity }

func (b BuiltinSnapshot) TextLen() int {
	return textLen(b.Name)
}

func (b BuiltinSnapshot) mergeInto(s *Scope) {
	switch b.Entity.ID {
	case BuiltinCalendar:
		s.IncludeSchedule = true
	case BuiltinTaskList:
		s.IncludeTaskList = true
	}
}

// SharedTrackSnapshot projects a track shared in from another project.
type SharedTrackSnapshot struct {
	Entity      entity.Ref
	Name        string
	Description string
	SharedFrom  string
}

func (t SharedTrackSnapshot) Ref() entity.Ref { return t.Entity }

func (t SharedTrackSnapshot) TextLen() int {
	return textLen(t.Name, t.Description, t.SharedFrom)
}

func (t SharedTrackSnapshot) mergeInto(s *Scope) {
	s.addTrackID(t.Entity.ID)
	s.IncludeTrackDetails = true
}

// Stable IDs of the builtin entities.
const (
	BuiltinCalendar = "calendar"
	BuiltinTaskList = "tasklist"
)

func textLen(fields ...string) int {
	total := 0
	for _, f := range fields {
		total += runeLen(f)
	}
	return total
}

// describe is used in error and log messages.
func describe(ref entity.Ref) string {
	return fmt.Sprintf("%s %s (%q)", ref.Category, ref.ID, ref.DisplayName)
}
