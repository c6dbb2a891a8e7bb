package generate

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
	"github.com/B3Pay/ic-reactor-sub004/pkg/codegen"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

type GenerateOptions struct {
	Canister string
	Clean    bool
}

func NewCmd() *cobra.Command {
	o := &GenerateOptions{}

	generateCmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Generate declarations and reactors for the configured canisters",
		Example: `  ic-reactor generate
  ic-reactor g -c backend --clean`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd)
		},
	}

	fset := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	fset.StringVarP(&o.Canister, "canister", "c", o.Canister,
		"Only generate this canister")
	fset.BoolVar(&o.Clean, "clean", o.Clean,
		"Remove generated files first, keeping index.ts")
	generateCmd.Flags().AddFlagSet(fset)

	return generateCmd
}

func (o *GenerateOptions) Run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	project, err := util.LoadProject(util.ConfigPath())
	if err != nil {
		return err
	}
	cfg := project.Config
	if len(cfg.Canisters) == 0 {
		return errors.New("no canisters configured")
	}
	names, err := cfg.CanisterNames(o.Canister)
	if err != nil {
		return err
	}

	spinner, err := util.NewSpinner(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	spinner.Step(fmt.Sprintf("Generating %d canister(s)...", len(names)))
	results, runErr := codegen.RunPipelines(ctx, cfg, project.Root, names, o.Clean)
	if ctx.Err() != nil {
		spinner.Fail("Generation interrupted")
		return ctx.Err()
	}
	spinner.Success("Generation complete")

	isSuccess := func(r codegen.PipelineResult, _ int) bool { return r.Success }
	succeeded := lo.Filter(results, isSuccess)
	failed := lo.Reject(results, isSuccess)

	changed := false
	for _, r := range succeeded {
		names := lo.Map(r.Methods, func(m idl.MethodInfo, _ int) string { return m.Name })
		changed = cfg.SetGeneratedHooks(r.CanisterName, names) || changed
	}
	if changed {
		if err := project.Save(); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		cmd.Println()
		cmd.Println(output.RedStr("Errors encountered:"))
		for _, r := range failed {
			cmd.Printf("  %s %s: %s\n", output.RedStr("•"), r.CanisterName, r.Err)
		}
	}

	cmd.Println()
	cmd.Printf("Success: %s\n", output.GreenStr(fmt.Sprint(len(succeeded))))
	cmd.Printf("Failed:  %s\n", output.RedStr(fmt.Sprint(len(failed))))

	if runErr != nil {
		return errors.Wrap(runErr, "generation failed")
	}
	cmd.Println(output.GreenStr("✓ All canisters generated successfully!"))
	return nil
}
