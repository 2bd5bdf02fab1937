package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirInfoNewChild(t *testing.T) {
	gpa := NewRoot()

	gpa.IncCount()
	uncle := gpa.NewChild("bob")

	assert.Equal(t, "", gpa.Path())
	assert.Equal(t, "bob", uncle.Path())
	assert.Equal(t, uint64(0), gpa.Level())
	assert.Equal(t, uint64(0), uncle.Level())
	assert.Equal(t, uint64(1), gpa.Count())
	assert.Equal(t, uint64(0), uncle.Count())

	uncle.IncCount()
	cousin := uncle.NewChild("bob/joe")
	assert.Equal(t, uint64(1), uncle.Count())

	gpa.IncCount()
	dad := gpa.NewChild("dad")
	assert.Equal(t, "dad", dad.Path())
	assert.Equal(t, uint64(0), dad.Level())
	assert.Equal(t, uint64(2), gpa.Count())

	dad.IncCount()
	me := dad.NewChild("me")
	dad.IncCount()
	bro := dad.NewChild("bro")
	assert.Equal(t, uint64(2), dad.Count())

	assert.Equal(t, "0000", uncle.ID().String())
	assert.Equal(t, "010000", cousin.ID().String())
	assert.Equal(t, "0001", dad.ID().String())
	assert.Equal(t, "010100", me.ID().String())
	assert.Equal(t, "010101", bro.ID().String())

	assert.Equal(t, "0001", gpa.LastChild().String())
	assert.Equal(t, "010000", uncle.LastChild().String())
	assert.Equal(t, "010101", dad.LastChild().String())
}

func TestStackWorkedExample(t *testing.T) {
	s := NewStack()

	walk := []struct {
		path string
		name string
		want string
	}{
		{"", "bob", "0000"},
		{"bob/", "joe", "010000"},
		{"", "dad", "0001"},
		{"dad/", "me", "010100"},
		{"dad/", "bro", "010101"},
	}

	for _, step := range walk {
		_, err := s.EnterOrReturn(step.path)
		require.NoError(t, err, step.name)
		assert.Equal(t, step.want, s.NewEntryID().String(), step.name)
	}

	assert.Equal(t, "0001", s.CurrentDirID().String())
	assert.Equal(t, "010101", s.CurrentChildBound().String())
	assert.Equal(t, 2, s.Depth())

	_, err := s.EnterOrReturn("")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, "0002", s.NewEntryID().String())
}

func TestEmptyDirectoryLastChildIsOwnID(t *testing.T) {
	root := NewRoot()
	root.IncCount()
	dir := root.NewChild("empty/")
	assert.Equal(t, dir.ID(), dir.LastChild())
}

func TestSiblingIDsAreMonotonicAndBounded(t *testing.T) {
	s := NewStack()
	_, err := s.EnterOrReturn("")
	require.NoError(t, err)
	_, err = s.EnterOrReturn("d/")
	require.NoError(t, err)
	dir := s.Top()
	dirID := dir.ID()

	// entering d/ counted its first child
	var children []EntryID
	children = append(children, s.NewEntryID())
	for i := 0; i < 400; i++ {
		_, err := s.EnterOrReturn("d/")
		require.NoError(t, err)
		children = append(children, s.NewEntryID())
	}

	end := PrefixEnd(dir.ChildPrefix())
	for i, child := range children {
		assert.Negative(t, dirID.Compare(child), "child %d must sort after its directory", i)
		assert.Negative(t, child.Compare(end), "child %d must sort before the range end", i)
		if i > 0 {
			assert.Negative(t, children[i-1].Compare(child), "child %d out of order", i)
		}
	}
	assert.Equal(t, children[len(children)-1], dir.LastChild())
}

func TestEnterOrReturnInconsistent(t *testing.T) {
	t.Run("push before any child counted", func(t *testing.T) {
		s := NewStack()
		_, err := s.EnterOrReturn("orphan/")
		assert.ErrorIs(t, err, ErrInconsistentWalkState)
	})

	t.Run("path outside open directory", func(t *testing.T) {
		s := NewStack()
		_, err := s.EnterOrReturn("")
		require.NoError(t, err)
		_, err = s.EnterOrReturn("a/")
		require.NoError(t, err)
		_, err = s.EnterOrReturn("b/")
		assert.ErrorIs(t, err, ErrInconsistentWalkState)
	})
}

func TestNewEntryChildPrefix(t *testing.T) {
	s := NewStack()
	_, err := s.EnterOrReturn("")
	require.NoError(t, err)
	prefix := s.NewEntryChildPrefix()

	_, err = s.EnterOrReturn("bob/")
	require.NoError(t, err)
	assert.Equal(t, prefix, s.Top().ChildPrefix())
	assert.Equal(t, "0100", prefix.String())
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x01}, PrefixEnd([]byte{0x01, 0x00}))
	assert.Equal(t, []byte{0x02}, PrefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
}

func TestWithTag(t *testing.T) {
	id := EntryID{0x01, 0x02}
	tagged := id.WithTag(0x00)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, tagged)
	assert.Equal(t, EntryID{0x01, 0x02}, id)
}
