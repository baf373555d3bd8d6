package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		open    int
		want    []string
	}{
		{"ready with proposals", StateReady, "", 2, []string{"2 open proposal(s)", "a: approve"}},
		{"ready without proposals", StateReady, "", 0, []string{"No open proposals"}},
		{"loading", StateLoading, "", 0, []string{"Loading..."}},
		{"error", StateError, "boom", 0, []string{"Error: boom"}},
		{"input shows input keys", StateInput, "Name the artifact", 1, []string{"Name the artifact", "enter: submit", "esc: cancel"}},
		{"done", StateDone, "Approved", 0, []string{"Approved"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetOpenCount(tt.open)

			view := bar.View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
}
