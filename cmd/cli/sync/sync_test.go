//go:build unit || !integration

package sync_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	cmdtesting "github.com/B3Pay/ic-reactor-sub004/cmd/testing"
)

const v1Did = `service : {
  greet: (text) -> (text) query;
  set_greeting: (text) -> ();
}`

const v2Did = `service : {
  greet: (text) -> (text) query;
  greet_all: () -> (vec text) query;
}`

type SyncSuite struct {
	cmdtesting.BaseSuite
}

func TestSyncSuite(t *testing.T) {
	suite.Run(t, new(SyncSuite))
}

func (s *SyncSuite) generated(name string) string {
	return s.ReadFile(filepath.Join("src/declarations", name, "index.generated.ts"))
}

func (s *SyncSuite) TestNothingGenerated() {
	s.Project(v1Did, "backend")

	out, err := s.Execute("sync")
	s.Require().NoError(err)
	s.Contains(out, "No hooks have been generated yet")
}

func (s *SyncSuite) TestReportsChangedMethods() {
	s.Project(v1Did, "backend")
	_, err := s.Execute("generate")
	s.Require().NoError(err)

	wrapper := "// custom\nexport * from \"./index.generated\"\n"
	s.WriteFile("src/declarations/backend/index.ts", wrapper)
	s.WriteFile("backend.did", v2Did)

	out, err := s.Execute("sync")
	s.Require().NoError(err)
	s.Contains(out, "backend: Methods removed from DID: set_greeting")
	s.Contains(out, "backend: New methods available: greet_all")
	s.Contains(out, "Updated: 2 files")
	s.Contains(out, "Skipped: 1 files (preserved customizations)")
	s.Contains(s.ReadFile("src/declarations/backend/declarations/backend.d.ts"), "'greet_all'")

	s.Contains(s.generated("backend"), `"greet_all": "query",`)
	s.NotContains(s.generated("backend"), "set_greeting")
	s.Equal(wrapper, s.ReadFile("src/declarations/backend/index.ts"))
	s.Equal([]string{"greet", "greet_all"}, s.LoadConfig().GeneratedHooks["backend"])
}

func (s *SyncSuite) TestRegeneratesMissingDeclarations() {
	s.Project(v1Did, "backend")
	_, err := s.Execute("generate")
	s.Require().NoError(err)
	s.Require().NoError(os.RemoveAll(filepath.Join(s.Root, "src/declarations/backend/declarations")))

	out, err := s.Execute("sync", "-c", "backend")
	s.Require().NoError(err)
	s.Contains(out, "Updated: 2 files")
	s.FileExists(filepath.Join(s.Root, "src/declarations/backend/declarations/backend.js"))
}

func (s *SyncSuite) TestUnchangedDeclarationsAreKept() {
	s.Project(v1Did, "backend")
	_, err := s.Execute("generate")
	s.Require().NoError(err)

	out, err := s.Execute("sync")
	s.Require().NoError(err)
	s.Contains(out, "Updated: 1 files")
}

func (s *SyncSuite) TestCollectsParseErrors() {
	cfg := s.Project(v1Did, "backend", "broken")
	cfg.GeneratedHooks = map[string][]string{"backend": {"greet"}, "broken": {"x"}}
	s.SaveConfig(cfg)
	s.WriteFile("broken.did", "service : {")

	out, err := s.Execute("sync")
	s.Require().NoError(err)
	s.Contains(out, "Errors encountered:")
	s.Contains(out, "broken: Failed to parse DID file")
	s.Contains(out, "backend: New methods available: set_greeting")
	s.Equal([]string{"x"}, s.LoadConfig().GeneratedHooks["broken"])
}

func (s *SyncSuite) TestUnknownCanister() {
	s.Project(v1Did, "backend")

	_, err := s.Execute("sync", "-c", "ghost")
	s.ErrorContains(err, `canister "ghost" not found`)
}

func (s *SyncSuite) TestWatch() {
	s.Project(v1Did, "backend")
	_, err := s.Execute("generate")
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, _, err := cmdtesting.ExecuteTestCobraCommandWithContext(ctx,
			"sync", "--watch", "--debounce", "10ms", "--config", s.ConfigPath())
		done <- err
	}()

	// the watcher starts after the first sync, so keep touching the file
	// until a change is picked up.
	s.Eventually(func() bool {
		s.WriteFile("backend.did", v2Did)
		data, err := os.ReadFile(filepath.Join(s.Root, "src/declarations/backend/index.generated.ts"))
		return err == nil && strings.Contains(string(data), "greet_all")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("watch did not stop after cancel")
	}
}
