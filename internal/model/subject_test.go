package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubjectKind(t *testing.T) {
	cases := []struct {
		raw  string
		want SubjectKind
		ok   bool
	}{
		{"MOVIE", KindMovie, true},
		{"movie", KindMovie, true},
		{" Sport ", KindSport, true},
		{"EVENT", KindEvent, true},
		{"", "", false},
		{"CONCERT", "", false},
		{"MOVIES", "", false},
	}
	for _, c := range cases {
		got, ok := ParseSubjectKind(c.raw)
		assert.Equal(t, c.ok, ok, "raw=%q", c.raw)
		assert.Equal(t, c.want, got, "raw=%q", c.raw)
	}
}

func TestSubjectForKind_DispatchesConcreteType(t *testing.T) {
	core := SubjectCore{ID: 5, PriceCents: 1500, Total: 100, Available: 40}

	movie, ok := SubjectForKind(KindMovie, core)
	assert.True(t, ok)
	assert.IsType(t, MovieShow{}, movie)
	assert.Equal(t, KindMovie, movie.Kind())
	assert.Equal(t, uint64(5), movie.SubjectID())
	assert.Equal(t, uint32(40), movie.AvailableSeats())

	sport, ok := SubjectForKind(KindSport, core)
	assert.True(t, ok)
	assert.IsType(t, SportFixture{}, sport)

	event, ok := SubjectForKind(KindEvent, core)
	assert.True(t, ok)
	assert.IsType(t, ConcertEvent{}, event)

	_, ok = SubjectForKind(SubjectKind("OPERA"), core)
	assert.False(t, ok)
}

func TestAllowsCustomPrice_OnlyConcertEvents(t *testing.T) {
	core := SubjectCore{}
	assert.False(t, MovieShow{core}.AllowsCustomPrice())
	assert.False(t, SportFixture{core}.AllowsCustomPrice())
	assert.True(t, ConcertEvent{core}.AllowsCustomPrice())
}
