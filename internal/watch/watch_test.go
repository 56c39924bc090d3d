package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/watch"
)

func TestWatcher(t *testing.T) {
	tests := map[string]struct {
		change     func(t *testing.T, dir string)
		expReloads bool
	}{
		"Writing a definition file should reload.": {
			change: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "1.yaml"), []byte("id: 1\n"), 0644))
			},
			expReloads: true,
		},

		"Writing a definition on a new directory should reload.": {
			change: func(t *testing.T, dir string) {
				sub := filepath.Join(dir, "leves")
				require.NoError(t, os.Mkdir(sub, 0755))
				time.Sleep(100 * time.Millisecond)
				require.NoError(t, os.WriteFile(filepath.Join(sub, "2.yml"), []byte("id: 2\n"), 0644))
			},
			expReloads: true,
		},

		"Writing a file that is not a definition should not reload.": {
			change: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# quests\n"), 0644))
			},
			expReloads: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			dir := t.TempDir()
			var reloads atomic.Int32
			w, err := watch.NewWatcher(watch.WatcherConfig{
				Dir:      dir,
				Debounce: 50 * time.Millisecond,
				Reloader: watch.ReloaderFunc(func(ctx context.Context) error {
					reloads.Add(1)
					return nil
				}),
			})
			require.NoError(err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error)
			go func() { done <- w.Run(ctx) }()
			defer func() {
				cancel()
				require.NoError(<-done)
			}()

			// Give the watcher time to register the directories.
			time.Sleep(100 * time.Millisecond)
			test.change(t, dir)

			if test.expReloads {
				assert.Eventually(t, func() bool { return reloads.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
			} else {
				time.Sleep(300 * time.Millisecond)
				assert.Equal(t, int32(0), reloads.Load())
			}
		})
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	var reloads atomic.Int32
	w, err := watch.NewWatcher(watch.WatcherConfig{
		Dir:      dir,
		Debounce: 200 * time.Millisecond,
		Reloader: watch.ReloaderFunc(func(ctx context.Context) error {
			reloads.Add(1)
			return nil
		}),
	})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(os.WriteFile(filepath.Join(dir, "1.yaml"), []byte("id: 1\n"), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(func() bool { return reloads.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	require.Equal(int32(1), reloads.Load())
}

func TestWatcherConfig(t *testing.T) {
	_, err := watch.NewWatcher(watch.WatcherConfig{Dir: "/tmp"})
	assert.Error(t, err)
}
