// Package history implements the linear edit-history store: an append-only,
// truncate-on-branch list of image snapshots with a current-index pointer.
// Promoting an edit from a non-tip index discards the forward entries,
// classic linear undo semantics with no redo tree.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/fpang/photo-drilldown/internal/imagefile"
)

// Entry is one snapshot of the original-image lineage.
type Entry struct {
	ID        string                `json:"id"`
	Data      []byte                `json:"-"`
	MIME      string                `json:"mime"`
	Preview   string                `json:"preview"`
	Exif      imagefile.ExifSummary `json:"exif"`
	CreatedAt time.Time             `json:"createdAt"`
}

// NewEntry builds an entry with a fresh ID and timestamp.
func NewEntry(data []byte, mime, preview string, exif imagefile.ExifSummary) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Data:      data,
		MIME:      mime,
		Preview:   preview,
		Exif:      exif,
		CreatedAt: time.Now(),
	}
}

// Store holds the history entries and the current-index pointer. It is plain
// data with no locking; the session controller is its single writer.
// Whenever the store is non-empty, the entry at Index() is the currently
// displayed original image.
type Store struct {
	entries []Entry
	index   int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: -1}
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Index returns the current index, or -1 when empty.
func (s *Store) Index() int { return s.index }

// Entries returns a copy of the entry list.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry returns the entry at i.
func (s *Store) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Active returns the currently displayed entry.
func (s *Store) Active() (Entry, bool) {
	return s.Entry(s.index)
}

// Seed replaces the whole history with [entry] at index 0. Used on the first
// upload of a fresh session.
func (s *Store) Seed(entry Entry) {
	s.entries = []Entry{entry}
	s.index = 0
}

// Commit truncates the history to [0..index], appends entry, and moves the
// index to the new last position. Committing from a non-tip index discards
// the forward entries.
func (s *Store) Commit(entry Entry) {
	if s.index < 0 {
		s.Seed(entry)
		return
	}
	kept := s.entries[:s.index+1]
	s.entries = append(append([]Entry{}, kept...), entry)
	s.index = len(s.entries) - 1
}

// Select moves the current index to i. Out-of-bounds indexes are a no-op and
// return false.
func (s *Store) Select(i int) (Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	s.index = i
	return s.entries[i], true
}

// DeleteResult describes the outcome of a Delete.
type DeleteResult struct {
	// Removed is false when the index was out of bounds.
	Removed bool
	// Emptied is true when the last remaining entry was deleted; the caller
	// must reset to the initial no-image state.
	Emptied bool
	// ActiveChanged is true when the deleted entry was the active one; the
	// caller must refresh the displayed image from the new active entry.
	ActiveChanged bool
}

// Delete removes the entry at i and relinks the current index: deleting the
// active entry moves the index to max(0, i-1); deleting before the active
// index shifts it left to stay on the same logical entry; deleting after it
// leaves it unchanged.
func (s *Store) Delete(i int) DeleteResult {
	if i < 0 || i >= len(s.entries) {
		return DeleteResult{}
	}

	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)

	if len(s.entries) == 0 {
		s.index = -1
		return DeleteResult{Removed: true, Emptied: true}
	}

	switch {
	case i == s.index:
		s.index = i - 1
		if s.index < 0 {
			s.index = 0
		}
		return DeleteResult{Removed: true, ActiveChanged: true}
	case i < s.index:
		s.index--
	}
	return DeleteResult{Removed: true}
}

// Reset clears all entries.
func (s *Store) Reset() {
	s.entries = nil
	s.index = -1
}
