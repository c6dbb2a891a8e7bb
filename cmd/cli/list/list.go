package list

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/flags/cliflags"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

type ListOptions struct {
	Canister   string
	OutputOpts output.OutputOptions
}

func NewListOptions() *ListOptions {
	return &ListOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

// Method is one row of the listing.
type Method struct {
	Canister string `json:"canister"`
	idl.MethodInfo
	Generated bool `json:"generated"`
}

func NewCmd() *cobra.Command {
	o := NewListOptions()

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the methods of the configured canisters",
		Example: `  ic-reactor list
  ic-reactor list -c backend --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd)
		},
	}

	fset := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fset.StringVarP(&o.Canister, "canister", "c", o.Canister,
		"Only list this canister")
	listCmd.Flags().AddFlagSet(fset)
	listCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))

	return listCmd
}

var listColumns = []output.TableColumn[Method]{
	{
		ColumnConfig: table.ColumnConfig{Name: "canister"},
		Value:        func(m Method) string { return m.Canister },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "name"},
		Value:        func(m Method) string { return m.Name },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "type"},
		Value: func(m Method) string {
			if m.Type == idl.MethodTypeQuery {
				return "query"
			}
			return "update"
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "args", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		Value:        func(m Method) string { return m.Args },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "returns", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		Value:        func(m Method) string { return m.Returns },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "generated", Align: text.AlignCenter},
		Value: func(m Method) string {
			if m.Generated {
				return "✓"
			}
			return "○"
		},
	},
}

func (o *ListOptions) Run(cmd *cobra.Command) error {
	project, err := util.LoadProject(util.ConfigPath())
	if err != nil {
		return err
	}
	cfg := project.Config
	if len(cfg.Canisters) == 0 {
		return fmt.Errorf("no canisters configured, add one to %s first", config.FileName)
	}
	names, err := cfg.CanisterNames(o.Canister)
	if err != nil {
		return err
	}

	var rows []Method
	for _, name := range names {
		methods, err := idl.ParseMethodsFile(config.Resolve(project.Root, cfg.Canisters[name].DidFile))
		if err != nil {
			return fmt.Errorf("failed to parse DID file of %s: %w", name, err)
		}
		rows = append(rows, canisterRows(cfg, name, methods)...)
	}

	if err := output.Output(cmd, listColumns, o.OutputOpts, rows); err != nil {
		return err
	}
	if o.OutputOpts.Format != output.TableFormat {
		return nil
	}

	generated := lo.CountBy(rows, func(m Method) bool { return m.Generated })
	cmd.Printf("\nTotal: %d methods, generated: %d / %d\n", len(rows), generated, len(rows))
	if generated < len(rows) {
		cmd.Println(output.FaintStr("Run 'ic-reactor generate' to generate the missing methods"))
	}
	return nil
}

// canisterRows lists queries before mutations.
func canisterRows(cfg *config.Config, name string, methods []idl.MethodInfo) []Method {
	queries, mutations := idl.Split(methods)
	generated := cfg.GeneratedHooks[name]
	return lo.Map(append(queries, mutations...), func(m idl.MethodInfo, _ int) Method {
		return Method{
			Canister:   name,
			MethodInfo: m,
			Generated:  lo.Contains(generated, m.Name),
		}
	})
}
