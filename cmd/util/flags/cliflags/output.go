package cliflags

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util/flags"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
)

func OutputFormatFlags(format *output.OutputOptions) *pflag.FlagSet {
	flagset := pflag.NewFlagSet("Output Format", pflag.ContinueOnError)

	flagset.Var(flags.OutputFormatFlag(&format.Format), "output",
		fmt.Sprintf(`The output format for the command (one of %q)`, output.AllFormats))
	flagset.BoolVar(&format.Pretty, "pretty", format.Pretty,
		`Pretty print the output. Only applies to json and yaml output formats.`)
	flagset.BoolVar(&format.HideHeader, "hide-header", format.HideHeader,
		`do not print the column headers.`)
	flagset.BoolVar(&format.NoStyle, "no-style", format.NoStyle,
		`remove all styling from table output.`)
	flagset.BoolVar(&format.Wide, "wide", format.Wide,
		`Print full values in the table results`)

	return flagset
}

// ConfigFlags selects the config file; by default it is searched from the
// working directory upwards.
func ConfigFlags(path *string) *pflag.FlagSet {
	flagset := pflag.NewFlagSet("Config", pflag.ContinueOnError)
	flagset.StringVar(path, "config", *path,
		`Path to ic-reactor.json. Searched from the working directory upwards when empty.`)
	return flagset
}
