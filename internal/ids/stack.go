package ids

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInconsistentWalkState means the walker broke the depth-first contract
var ErrInconsistentWalkState = errors.New("inconsistent walk state")

// Stack tracks the open directories of a depth-first walk, root first.
// It is not safe for concurrent use; entries must be fed one at a time.
type Stack struct {
	frames []*DirInfo
}

// NewStack returns a stack holding only the synthetic root
func NewStack() *Stack {
	return &Stack{frames: []*DirInfo{NewRoot()}}
}

// Reset drops every frame but a fresh root, used when a new filesystem starts
func (s *Stack) Reset() {
	s.frames = []*DirInfo{NewRoot()}
}

// Depth returns the number of open frames, root included
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Top returns the directory currently being populated
func (s *Stack) Top() *DirInfo {
	return s.frames[len(s.frames)-1]
}

// EnterOrReturn resolves the directory for the next entry from its walker path.
// A path already on the stack pops everything above it (return to an ancestor).
// An unknown path is pushed as a child of the current top. Either way the
// resulting top counts the entry as a new child before it is returned.
func (s *Stack) EnterOrReturn(path string) (*DirInfo, error) {
	found := -1
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].path == path {
			found = i
			break
		}
	}

	if found >= 0 {
		for i := found + 1; i < len(s.frames); i++ {
			s.frames[i] = nil
		}
		s.frames = s.frames[:found+1]
	} else {
		top := s.Top()
		if top.count == 0 {
			return nil, fmt.Errorf("%w: entered %q before any entry was counted in %q", ErrInconsistentWalkState, path, top.path)
		}
		if !strings.HasPrefix(path, top.path) {
			return nil, fmt.Errorf("%w: %q is not below open directory %q", ErrInconsistentWalkState, path, top.path)
		}
		s.frames = append(s.frames, top.NewChild(path))
	}

	top := s.Top()
	top.IncCount()
	return top, nil
}

// CurrentDirID returns the ID of the directory now being populated
func (s *Stack) CurrentDirID() EntryID {
	return s.Top().ID()
}

// CurrentChildBound returns the ID of the top directory's most recent child
func (s *Stack) CurrentChildBound() EntryID {
	return s.Top().LastChild()
}

// NewEntryID returns the ID of the entry just counted by EnterOrReturn
func (s *Stack) NewEntryID() EntryID {
	top := s.Top()
	if top.count == 0 {
		return top.ID()
	}
	return top.ChildID(top.count - 1)
}

// NewEntryChildPrefix returns the prefix that children of the entry just
// counted will carry, should that entry turn out to be a directory
func (s *Stack) NewEntryChildPrefix() EntryID {
	return s.Top().NewChild("").ChildPrefix()
}
