package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestEnsureDotEnvLoadsQuietly(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RASCSICTL_DOTENV_CHECK=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("GOTEST_LOAD_DOTENV", "1")
	t.Cleanup(func() { os.Unsetenv("RASCSICTL_DOTENV_CHECK") })

	var buf bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.TraceLevel)
	t.Cleanup(func() { log.Logger = saved })

	if err := EnsureDotEnv(); err != nil {
		t.Fatalf("EnsureDotEnv: %v", err)
	}
	if got := os.Getenv("RASCSICTL_DOTENV_CHECK"); got != "loaded" {
		t.Errorf("variable from .env = %q", got)
	}
	if filepath.Base(DotEnvPath()) != ".env" || DotEnvErr() != nil {
		t.Errorf("DotEnvPath() = %q, DotEnvErr() = %v", DotEnvPath(), DotEnvErr())
	}
	if buf.Len() != 0 {
		t.Errorf("logged before logging was configured: %s", buf.String())
	}
}
