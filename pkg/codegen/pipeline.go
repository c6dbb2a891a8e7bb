package codegen

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

const (
	GeneratedFileName = "index.generated.ts"
	IndexFileName     = "index.ts"
	ClientFileName    = "src/clients.ts"
)

// GeneratorResult describes one file written, or left alone, by a
// generator.
type GeneratorResult struct {
	FilePath string `json:"filePath"`
	Success  bool   `json:"success"`
	// Skipped is set when the file already existed and was kept.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

type PipelineOptions struct {
	CanisterName string
	Canister     config.CanisterConfig
	ProjectRoot  string
	Global       *config.Config
	// Clean removes the canister output directory first, keeping index.ts.
	Clean bool
}

type PipelineResult struct {
	CanisterName string
	Success      bool
	Files        []GeneratorResult
	Methods      []idl.MethodInfo
	Err          error
}

// RunCanisterPipeline generates the declarations, the reactor file and,
// when missing, the wrapper of one canister.
func RunCanisterPipeline(ctx context.Context, opts PipelineOptions) PipelineResult {
	result := PipelineResult{CanisterName: opts.CanisterName}
	cfg := withCanister(opts.Global, opts.CanisterName, opts.Canister)
	logger := log.Ctx(ctx).With().Str("canister", opts.CanisterName).Logger()

	if opts.Canister.DidFile == "" {
		result.Err = errors.Errorf("[%s] didFile is not set", opts.CanisterName)
		return result
	}
	didFile := config.Resolve(opts.ProjectRoot, opts.Canister.DidFile)
	outDir := config.Resolve(opts.ProjectRoot, cfg.CanisterOutDir(opts.CanisterName))

	if opts.Clean {
		if err := cleanOutDir(outDir); err != nil {
			result.Err = errors.Wrapf(err, "[%s] failed to clean %s", opts.CanisterName, outDir)
			return result
		}
	}
	if err := config.EnsureDir(outDir); err != nil {
		result.Err = errors.Wrapf(err, "[%s] failed to create %s", opts.CanisterName, outDir)
		return result
	}

	decl, err := GenerateDeclarations(DeclarationsOptions{
		DidFile:      didFile,
		OutDir:       outDir,
		CanisterName: opts.CanisterName,
	})
	result.Files = append(result.Files, decl.Files...)
	if err != nil {
		result.Err = err
		return result
	}
	logger.Debug().Str("dir", decl.Dir).Msg("declarations generated")

	methods, err := idl.ParseMethodsFile(didFile)
	if err != nil {
		result.Err = errors.Wrapf(err, "[%s] failed to read methods", opts.CanisterName)
		return result
	}
	result.Methods = methods

	generated, err := WriteReactorFile(cfg, opts.CanisterName, outDir, opts.Canister.DidFile, methods)
	result.Files = append(result.Files, generated)
	if err != nil {
		result.Err = err
		return result
	}

	wrapper, err := writeIndexFile(outDir)
	result.Files = append(result.Files, wrapper)
	if err != nil {
		result.Err = err
		return result
	}

	logger.Info().Int("methods", len(methods)).Msg("canister generated")
	result.Success = true
	return result
}

// WriteReactorFile renders and writes index.generated.ts.
func WriteReactorFile(cfg *config.Config, name, outDir, didFile string, methods []idl.MethodInfo) (GeneratorResult, error) {
	path := filepath.Join(outDir, GeneratedFileName)
	content, err := RenderReactorFile(NewReactorFileData(cfg, name, filepath.ToSlash(didFile), methods))
	if err == nil {
		err = os.WriteFile(path, content, 0o644) //nolint:gosec
	}
	if err != nil {
		err = errors.Wrapf(err, "[%s] failed to write %s", name, path)
		return GeneratorResult{FilePath: path, Error: err.Error()}, err
	}
	return GeneratorResult{FilePath: path, Success: true}, nil
}

func writeIndexFile(outDir string) (GeneratorResult, error) {
	path := filepath.Join(outDir, IndexFileName)
	created, err := WriteFileIfMissing(path, RenderIndexFile)
	if err != nil {
		return GeneratorResult{FilePath: path, Error: err.Error()}, err
	}
	return GeneratorResult{FilePath: path, Success: true, Skipped: !created}, nil
}

// WriteFileIfMissing renders and writes path unless it exists. It reports
// whether the file was created.
func WriteFileIfMissing(path string, render func() ([]byte, error)) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	content, err := render()
	if err != nil {
		return false, err
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil { //nolint:gosec
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	return true, nil
}

// RunPipelines generates every named canister. Failures do not stop the
// remaining canisters and are returned together.
func RunPipelines(ctx context.Context, cfg *config.Config, projectRoot string, names []string, clean bool) ([]PipelineResult, error) {
	var errs *multierror.Error
	results := make([]PipelineResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := RunCanisterPipeline(ctx, PipelineOptions{
			CanisterName: name,
			Canister:     cfg.Canisters[name],
			ProjectRoot:  projectRoot,
			Global:       cfg,
			Clean:        clean,
		})
		if res.Err != nil {
			errs = multierror.Append(errs, res.Err)
		}
		results = append(results, res)
	}
	return results, errs.ErrorOrNil()
}

func withCanister(global *config.Config, name string, canister config.CanisterConfig) *config.Config {
	cfg := config.Default()
	if global != nil {
		c := *global
		cfg = &c
	}
	canisters := make(map[string]config.CanisterConfig, len(cfg.Canisters)+1)
	maps.Copy(canisters, cfg.Canisters)
	canisters[name] = canister
	cfg.Canisters = canisters
	return cfg
}

func cleanOutDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == IndexFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
