package schema

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
)

type SchemaOptions struct {
	// Check validates the project config instead of printing the schema.
	Check bool
}

func NewCmd() *cobra.Command {
	o := &SchemaOptions{}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of " + config.FileName,
		Example: `  ic-reactor schema > schema.json
  ic-reactor schema --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd)
		},
	}
	schemaCmd.Flags().BoolVar(&o.Check, "check", o.Check,
		"Validate "+config.FileName+" against the schema")
	return schemaCmd
}

func (o *SchemaOptions) Run(cmd *cobra.Command) error {
	if !o.Check {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		cmd.Println(string(schema))
		return nil
	}

	configPath, err := util.FindConfigPath(util.ConfigPath())
	if err != nil {
		return err
	}
	document, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(document); err != nil {
		return err
	}
	cmd.Println(output.GreenStr("✓ " + configPath + " is valid"))
	return nil
}
