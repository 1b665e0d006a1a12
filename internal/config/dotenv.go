package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var (
	loadOnce   sync.Once
	loadedPath string
	loadErr    error
)

// EnsureDotEnv loads the first .env file found from the working directory up
// to the filesystem root. Variables already set in the environment win.
// Subsequent calls are no-ops. Nothing is logged here since it runs before
// the caller has set up logging; see DotEnvPath and DotEnvErr.
func EnsureDotEnv() error {
	// Unit tests stay hermetic unless GOTEST_LOAD_DOTENV=1
	if runningUnderGoTest() && os.Getenv("GOTEST_LOAD_DOTENV") != "1" {
		return nil
	}
	loadOnce.Do(func() {
		path, err := findDotEnv()
		if err != nil {
			loadErr = errors.Wrap(err, "search .env")
			return
		}
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil {
			loadErr = errors.Wrapf(err, "load %s", path)
			return
		}
		loadedPath = path
	})
	return loadErr
}

// DotEnvPath returns the .env file that was loaded, or ""
func DotEnvPath() string {
	return loadedPath
}

// DotEnvErr returns why the .env file could not be loaded, if it could not
func DotEnvErr() error {
	return loadErr
}

func runningUnderGoTest() bool {
	if strings.HasSuffix(os.Args[0], ".test") {
		return true
	}
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}

func findDotEnv() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(wd, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", nil
		}
		wd = parent
	}
}
