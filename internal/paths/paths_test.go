package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform swaps the OS lookups for the duration of t.
func fakePlatform(t *testing.T, home, cwd string) {
	t.Helper()
	saved := platform
	platform.homeDir = func() (string, error) { return home, nil }
	platform.userConfigDir = func() (string, error) { return filepath.Join(home, "AppData"), nil }
	platform.getwd = func() (string, error) { return cwd, nil }
	t.Cleanup(func() { platform = saved })
}

func TestDefaultDirs_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	fakePlatform(t, "/home/ada", "/work")

	tests := []struct {
		name   string
		xdgVar string
		xdgVal string
		fn     func() (string, error)
		want   string
	}{
		{"config from XDG", "XDG_CONFIG_HOME", "/xdg/config", DefaultConfigDir, "/xdg/config/keepsake"},
		{"config fallback", "XDG_CONFIG_HOME", "", DefaultConfigDir, "/home/ada/.config/keepsake"},
		{"data from XDG", "XDG_DATA_HOME", "/xdg/data", DefaultDataDir, "/xdg/data/keepsake"},
		{"data fallback", "XDG_DATA_HOME", "", DefaultDataDir, "/home/ada/.local/share/keepsake"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.xdgVar, tt.xdgVal)
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultDirs_NonLinux(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Skip("non-linux test")
	}
	fakePlatform(t, "/Users/ada", "/work")

	got, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/Users/ada", "AppData", "keepsake"), got)
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	saved := platform
	platform.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Cleanup(func() { platform = saved })
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	fakePlatform(t, "/home/ada", "/work")

	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", "/env/config"},
		{"tilde expands", "~/cfg", "", "/home/ada/cfg"},
		{"platform default", "", "", "keepsake"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "/home/ada", "/work")

	tests := []struct {
		name        string
		flag        string
		configValue string
		envVal      string
		want        string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env when flag and config empty", "", "", "/env/data", "/env/data"},
		{"cwd default", "", "", "", "/work/.keepsake-db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestResolveBackupDir(t *testing.T) {
	got, err := ResolveBackupDir("", "/data")
	require.NoError(t, err)
	assert.Equal(t, "/data/backups", got)

	got, err = ResolveBackupDir("/tmp/out", "/data")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", got)
}
