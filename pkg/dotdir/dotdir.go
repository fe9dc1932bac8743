// Package dotdir locates the huddle state directory.
//
// A huddle directory holds config.toml and the transcripts/ journal. It is
// found, in order, from an explicit override, $HUDDLE_HOME, the nearest
// .huddle/ in the working directory or one of its parents, and finally
// ~/.huddle, which is created on demand.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	name = ".huddle"

	// HomeEnv overrides directory discovery.
	HomeEnv = "HUDDLE_HOME"

	configFile  = "config.toml"
	transcripts = "transcripts"
)

// Dir is the absolute path of a resolved huddle directory.
type Dir string

// Resolve finds the huddle directory and makes sure it exists.
func Resolve(override string) (Dir, error) {
	dir, err := locate(override)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating huddle directory %s: %w", abs, err)
	}
	return Dir(abs), nil
}

func locate(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if found, ok := nearest(cwd); ok {
		return found, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, name), nil
}

// nearest walks from start towards the root looking for a .huddle directory.
func nearest(start string) (string, bool) {
	for dir := start; ; {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (d Dir) String() string {
	return string(d)
}

// ConfigFile is the path of config.toml. It may not exist yet.
func (d Dir) ConfigFile() string {
	return filepath.Join(string(d), configFile)
}

// Transcripts is the default journal directory. The journal creates it lazily.
func (d Dir) Transcripts() string {
	return filepath.Join(string(d), transcripts)
}
