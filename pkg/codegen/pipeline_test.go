//go:build unit || !integration

package codegen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
)

const greetDid = `service : {
  greet: (text) -> (text) query;
  set_greeting: (text) -> ();
}`

type PipelineSuite struct {
	suite.Suite
	root string
	cfg  *config.Config
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.root = s.T().TempDir()
	s.cfg = config.Default()
	s.cfg.ClientManagerPath = config.DefaultClientManagerPath
}

func (s *PipelineSuite) addCanister(name string) config.CanisterConfig {
	did := name + ".did"
	s.Require().NoError(os.WriteFile(filepath.Join(s.root, did), []byte(greetDid), 0o644))
	canister := config.CanisterConfig{Name: name, DidFile: did}
	s.cfg.Canisters[name] = canister
	return canister
}

func (s *PipelineSuite) run(name string, clean bool) PipelineResult {
	return RunCanisterPipeline(context.Background(), PipelineOptions{
		CanisterName: name,
		Canister:     s.cfg.Canisters[name],
		ProjectRoot:  s.root,
		Global:       s.cfg,
		Clean:        clean,
	})
}

func (s *PipelineSuite) read(rel string) string {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	s.Require().NoError(err)
	return string(data)
}

func (s *PipelineSuite) TestGeneratesAllFiles() {
	s.addCanister("backend")

	res := s.run("backend", false)
	s.Require().NoError(res.Err)
	s.True(res.Success)
	s.Len(res.Methods, 2)

	for _, rel := range []string{
		"src/declarations/backend/declarations/backend.js",
		"src/declarations/backend/declarations/backend.d.ts",
		"src/declarations/backend/declarations/backend.did",
		"src/declarations/backend/index.generated.ts",
		"src/declarations/backend/index.ts",
	} {
		s.FileExists(filepath.Join(s.root, rel))
	}
	s.Len(res.Files, 5)

	generated := s.read("src/declarations/backend/index.generated.ts")
	s.Contains(generated, `import { DisplayReactor, createActorHooks } from "@ic-reactor/react"`)
	s.Contains(generated, `import { clientManager } from "../../clients"`)
	s.Contains(generated, `import { idlFactory, type _SERVICE } from "./declarations/backend"`)
	s.Contains(generated, "export type BackendService = _SERVICE")
	s.Contains(generated, "new DisplayReactor<BackendService>")
	s.Contains(generated, "useActorQuery: useBackendQuery,")
	s.Contains(generated, "useActorMutation: useBackendMutation,")
	s.Contains(generated, "} = createActorHooks(backendReactor)")
	s.Contains(generated, `"set_greeting": "mutation",`)
	s.NotContains(generated, "BackendReactorMode")

	s.Contains(s.read("src/declarations/backend/index.ts"), `export * from "./index.generated"`)
	s.Equal(greetDid, s.read("src/declarations/backend/declarations/backend.did"))
}

func (s *PipelineSuite) TestRegenerationIsStable() {
	s.addCanister("backend")
	s.Require().NoError(s.run("backend", false).Err)
	first := s.read("src/declarations/backend/index.generated.ts")
	firstJS := s.read("src/declarations/backend/declarations/backend.js")

	s.Require().NoError(s.run("backend", false).Err)
	s.Equal(first, s.read("src/declarations/backend/index.generated.ts"))
	s.Equal(firstJS, s.read("src/declarations/backend/declarations/backend.js"))
}

func (s *PipelineSuite) TestWrapperIsNotOverwritten() {
	s.addCanister("backend")
	s.Require().NoError(s.run("backend", false).Err)

	wrapper := filepath.Join(s.root, "src/declarations/backend/index.ts")
	custom := "// user wrapper\nexport const customBackendWrapper = true\n"
	s.Require().NoError(os.WriteFile(wrapper, []byte(custom), 0o644))

	res := s.run("backend", true)
	s.Require().NoError(res.Err)
	s.Equal(custom, s.read("src/declarations/backend/index.ts"))
	s.Contains(res.Files, GeneratorResult{FilePath: wrapper, Success: true, Skipped: true})
}

func (s *PipelineSuite) TestCleanRemovesStaleFiles() {
	s.addCanister("backend")
	s.Require().NoError(s.run("backend", false).Err)
	stale := filepath.Join(s.root, "src/declarations/backend/stale.ts")
	s.Require().NoError(os.WriteFile(stale, []byte("x"), 0o644))

	s.Require().NoError(s.run("backend", true).Err)
	s.NoFileExists(stale)
	s.FileExists(filepath.Join(s.root, "src/declarations/backend/index.ts"))
}

func (s *PipelineSuite) TestModeOverride() {
	s.addCanister("workflow_engine")
	s.cfg.Reactor = &config.ReactorConfig{
		DefaultMode: config.ModeDisplay,
		Canisters:   map[string]config.ReactorMode{"workflow_engine": config.ModeRaw},
	}

	res := s.run("workflow_engine", false)
	s.Require().NoError(res.Err)

	generated := s.read("src/declarations/workflow_engine/index.generated.ts")
	s.Contains(generated, "new Reactor<WorkflowEngineService>")
	s.Contains(generated, `export const WorkflowEngineReactorMode = "raw" as const`)
	s.Contains(generated, "useActorQuery: useWorkflowEngineQuery,")
}

func (s *PipelineSuite) TestCanisterOverrides() {
	canister := s.addCanister("ledger")
	canister.OutDir = "src/canisters/ledger"
	canister.ClientManagerPath = "../../lib/client"
	canister.CanisterID = "ryjl3-tyaaa-aaaaa-aaaba-cai"
	s.cfg.Canisters["ledger"] = canister

	s.Require().NoError(s.run("ledger", false).Err)
	generated := s.read("src/canisters/ledger/index.generated.ts")
	s.Contains(generated, `import { clientManager } from "../../lib/client"`)
	s.Contains(generated, `canisterId: "ryjl3-tyaaa-aaaaa-aaaba-cai",`)
}

func (s *PipelineSuite) TestMissingDidFile() {
	s.cfg.Canisters["ghost"] = config.CanisterConfig{Name: "ghost", DidFile: "ghost.did"}

	res := s.run("ghost", false)
	s.False(res.Success)
	s.ErrorContains(res.Err, "DID file not found: "+filepath.Join(s.root, "ghost.did"))
}

func (s *PipelineSuite) TestRunPipelinesAggregatesErrors() {
	s.addCanister("backend")
	s.cfg.Canisters["ghost"] = config.CanisterConfig{Name: "ghost", DidFile: "ghost.did"}

	results, err := RunPipelines(context.Background(), s.cfg, s.root, []string{"backend", "ghost"}, false)
	s.Require().Len(results, 2)
	s.True(results[0].Success)
	s.False(results[1].Success)
	s.ErrorContains(err, "DID file not found")
	s.ErrorContains(err, "1 error occurred")
}

func (s *PipelineSuite) TestDeclarationsExist() {
	s.addCanister("backend")
	outDir := filepath.Join(s.root, "src/declarations/backend")
	s.False(DeclarationsExist(outDir, "backend.did"))
	s.Require().NoError(s.run("backend", false).Err)
	s.True(DeclarationsExist(outDir, "backend.did"))
}

func (s *PipelineSuite) TestClientFileCreatedOnce() {
	path := filepath.Join(s.root, ClientFileName)
	created, err := WriteFileIfMissing(path, RenderClientFile)
	s.Require().NoError(err)
	s.True(created)
	s.Contains(s.read(ClientFileName), "export const clientManager = new ClientManager")

	created, err = WriteFileIfMissing(path, RenderClientFile)
	s.Require().NoError(err)
	s.False(created)
}

func (s *PipelineSuite) TestDeclarationsUpToDate() {
	s.addCanister("backend")
	outDir := filepath.Join(s.root, "src/declarations/backend")
	didFile := filepath.Join(s.root, "backend.did")
	s.False(DeclarationsUpToDate(outDir, didFile))

	s.Require().NoError(s.run("backend", false).Err)
	s.True(DeclarationsUpToDate(outDir, didFile))

	s.Require().NoError(os.WriteFile(didFile, []byte("service : {}"), 0o644))
	s.False(DeclarationsUpToDate(outDir, didFile))
}
