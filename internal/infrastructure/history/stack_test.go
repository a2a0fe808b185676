package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/fusionchef/internal/domain/session"
)

func TestStack_PushTruncatesForward(t *testing.T) {
	s := NewStack()
	require.NoError(t, s.Replace(session.Home()))
	require.NoError(t, s.Push(session.Entry(session.StepModeSelection, session.TabHome)))
	require.NoError(t, s.Push(session.Entry(session.StepIngredients, session.TabHome)))

	require.NoError(t, s.Back())
	require.NoError(t, s.Push(session.Entry(session.StepCommunity, session.TabCommunity)))

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, session.StepCommunity, entries[2].Step)
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, session.TabCommunity, cur.Tab)
}

func TestStack_ReplaceOnEmptySeeds(t *testing.T) {
	s := NewStack()
	_, ok := s.Current()
	assert.False(t, ok)

	require.NoError(t, s.Replace(session.Home()))
	require.NoError(t, s.Replace(session.Entry(session.StepLoading, session.TabHome)))
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.CanGoBack())
}

func TestStack_BackDeliversToSubscriber(t *testing.T) {
	s := NewStack()
	var restored []session.Step
	s.Subscribe(func(e *session.NavigationEntry) { restored = append(restored, e.Step) })

	require.NoError(t, s.Replace(session.Home()))
	require.NoError(t, s.Push(session.Entry(session.StepModeSelection, session.TabHome)))

	prev, ok := s.Previous()
	require.True(t, ok)
	assert.Equal(t, session.StepWelcome, prev.Step)

	require.NoError(t, s.Back())
	require.NoError(t, s.Back(), "back at the start is a silent no-op")
	require.NoError(t, s.Forward())

	assert.Equal(t, []session.Step{session.StepWelcome, session.StepModeSelection}, restored)
}

func TestRestrictedStack_RejectsWrites(t *testing.T) {
	s := NewRestrictedStack()
	assert.ErrorIs(t, s.Push(session.Home()), ErrRestricted)
	assert.ErrorIs(t, s.Replace(session.Home()), ErrRestricted)
	assert.Zero(t, s.Len())
	assert.False(t, s.CanGoBack())
}
