package codegen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

const DeclarationsDir = "declarations"

type DeclarationsOptions struct {
	// DidFile is the absolute path of the .did file.
	DidFile string
	// OutDir is the canister output directory; declarations/ is created
	// inside it.
	OutDir       string
	CanisterName string
}

type DeclarationsResult struct {
	Dir   string
	Files []GeneratorResult
}

// DeclarationsBaseName is the file name stem shared by the declaration
// files of a .did file.
func DeclarationsBaseName(didFile string) string {
	return strings.TrimSuffix(filepath.Base(didFile), ".did")
}

// GenerateDeclarations writes the IDL factory, the type declarations and a
// copy of the .did file. The declarations directory is recreated on every
// run.
func GenerateDeclarations(opts DeclarationsOptions) (DeclarationsResult, error) {
	src, err := os.ReadFile(opts.DidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return DeclarationsResult{}, errors.Errorf("DID file not found: %s", opts.DidFile)
		}
		return DeclarationsResult{}, errors.Wrapf(err, "failed to read %s", opts.DidFile)
	}
	prog, err := idl.Parse(string(src))
	if err != nil {
		return DeclarationsResult{}, errors.Wrapf(err, "[%s] failed to parse %s", opts.CanisterName, opts.DidFile)
	}

	dir := filepath.Join(opts.OutDir, DeclarationsDir)
	if err := os.RemoveAll(dir); err != nil {
		return DeclarationsResult{}, errors.Wrapf(err, "[%s] failed to clean %s", opts.CanisterName, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DeclarationsResult{}, errors.Wrapf(err, "[%s] failed to create %s", opts.CanisterName, dir)
	}

	base := DeclarationsBaseName(opts.DidFile)
	outputs := []struct {
		name    string
		content []byte
	}{
		{base + ".js", []byte(GenerateJS(prog))},
		{base + ".d.ts", []byte(GenerateTS(prog))},
		{base + ".did", src},
	}

	result := DeclarationsResult{Dir: dir}
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := os.WriteFile(path, out.content, 0o644); err != nil { //nolint:gosec
			return result, errors.Wrapf(err, "[%s] failed to write %s", opts.CanisterName, path)
		}
		result.Files = append(result.Files, GeneratorResult{FilePath: path, Success: true})
	}
	return result, nil
}

// DeclarationsExist reports whether the type declarations of a .did file
// were generated in outDir.
func DeclarationsExist(outDir, didFile string) bool {
	_, err := os.Stat(filepath.Join(outDir, DeclarationsDir, DeclarationsBaseName(didFile)+".d.ts"))
	return err == nil
}

// DeclarationsUpToDate reports whether the declarations in outDir were
// generated from the current content of didFile.
func DeclarationsUpToDate(outDir, didFile string) bool {
	if !DeclarationsExist(outDir, didFile) {
		return false
	}
	src, err := os.ReadFile(didFile)
	if err != nil {
		return false
	}
	copied, err := os.ReadFile(filepath.Join(outDir, DeclarationsDir, DeclarationsBaseName(didFile)+".did"))
	return err == nil && bytes.Equal(src, copied)
}
