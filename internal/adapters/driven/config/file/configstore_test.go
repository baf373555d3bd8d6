package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, ConfigFile), store.Path())
}

func TestDefaultConfigDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := DefaultConfigDir()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".guidekit"), dir)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		check func(t *testing.T, s *ConfigStore, key string)
	}{
		{
			name:  "string",
			key:   "paths.watch_dir",
			value: "/srv/guidelines",
			check: func(t *testing.T, s *ConfigStore, key string) {
				assert.Equal(t, "/srv/guidelines", s.GetString(key))
				assert.Zero(t, s.GetInt(key))
			},
		},
		{
			name:  "int",
			key:   "extract.workers",
			value: 8,
			check: func(t *testing.T, s *ConfigStore, key string) {
				assert.Equal(t, 8, s.GetInt(key))
				assert.InDelta(t, 8.0, s.GetFloat(key), 1e-9)
				assert.Empty(t, s.GetString(key))
			},
		},
		{
			name:  "float",
			key:   "search.recent_boost",
			value: 1.25,
			check: func(t *testing.T, s *ConfigStore, key string) {
				assert.InDelta(t, 1.25, s.GetFloat(key), 1e-9)
				assert.Zero(t, s.GetInt(key))
			},
		},
		{
			name:  "bool",
			key:   "watch.process",
			value: true,
			check: func(t *testing.T, s *ConfigStore, key string) {
				assert.True(t, s.GetBool(key))
			},
		},
		{
			name:  "string slice",
			key:   "web.trusted_sources",
			value: []string{"escardio.org", "nice.org.uk"},
			check: func(t *testing.T, s *ConfigStore, key string) {
				assert.Equal(t, []string{"escardio.org", "nice.org.uk"}, s.GetStringSlice(key))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewConfigStore(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, store.Set(tt.key, tt.value))
			tt.check(t, store, tt.key)
		})
	}
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Zero(t, store.GetFloat("nonexistent"))
	assert.Nil(t, store.GetStringSlice("nonexistent"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("paths.data_dir", "/var/lib/guidekit"))
	require.NoError(t, store1.Set("search.default_limit", 7))
	require.NoError(t, store1.Set("search.weight_title", 0.5))
	require.NoError(t, store1.Set("web.trusted_sources", []string{"nice.org.uk"}))

	// New instance loads from file; TOML numbers come back as int64/float64.
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/guidekit", store2.GetString("paths.data_dir"))
	assert.Equal(t, 7, store2.GetInt("search.default_limit"))
	assert.InDelta(t, 0.5, store2.GetFloat("search.weight_title"), 1e-9)
	assert.Equal(t, []string{"nice.org.uk"}, store2.GetStringSlice("web.trusted_sources"))
}

func TestConfigStore_SavesNestedTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("search.recent_year", 2021))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[search]")
	assert.Contains(t, string(data), "recent_year = 2021")
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[index]
backend = "sqlite"

[search]
recent_boost = 1
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", store.GetString("index.backend"))
	assert.InDelta(t, 1.0, store.GetFloat("search.recent_boost"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ConfigFile, entries[0].Name())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// Channels cannot be marshalled to TOML.
	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()
}

func TestNestMap_InvertsFlattenMap(t *testing.T) {
	flat := map[string]any{
		"search.weight_title": 0.45,
		"search.recent_year":  int64(2020),
		"index.backend":       "json",
		"top":                 true,
	}

	assert.Equal(t, flat, flattenMap(nestMap(flat), ""))
}
