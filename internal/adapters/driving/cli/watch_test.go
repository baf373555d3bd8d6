package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

func TestWatchCmd_PassesProcessFlag(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		autoProcess bool
	}{
		{"register only", []string{"watch"}, false},
		{"with processing", []string{"watch", "--process"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w := &mockWatcher{}
			var gotAuto bool
			useServices(t, &Services{
				WatchDir: dir,
				Watcher: func(autoProcess bool) driving.WatchService {
					gotAuto = autoProcess
					return w
				},
			})

			out, err := execute(t, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.autoProcess, gotAuto)
			assert.Equal(t, dir, w.root)
			assert.Contains(t, out, "Watching "+dir)
		})
	}
}

func TestWatchCmd_NotConfigured(t *testing.T) {
	useServices(t, &Services{})

	_, err := execute(t, "watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch service not configured")
}
