package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{Play, "PLAY"},
		{Pause, "PAUSE"},
		{Next, "NEXT"},
		{Action(42), ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.action.String())
	}
}

func TestParse(t *testing.T) {
	for _, a := range All() {
		got, ok := Parse(a.String())
		assert.True(t, ok, "Parse(%q)", a)
		assert.Equal(t, a, got)
	}

	for _, s := range []string{"", "play", "Pause", "PREVIOUS", "default", " NEXT"} {
		_, ok := Parse(s)
		assert.False(t, ok, "Parse(%q) should fail", s)
	}
}

func TestKeysMatchAll(t *testing.T) {
	assert.Equal(t, []string{"PLAY", "PAUSE", "NEXT"}, Keys())
}

func TestHandlerFunc(t *testing.T) {
	var got []Action
	var h Handler = HandlerFunc(func(a Action) { got = append(got, a) })

	h.OnActionRequested(Next)
	h.OnActionRequested(Play)

	assert.Equal(t, []Action{Next, Play}, got)
}
