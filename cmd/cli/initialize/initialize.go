package initialize

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
	"github.com/B3Pay/ic-reactor-sub004/pkg/codegen"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
)

var canisterNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

type InitOptions struct {
	OutDir            string
	ClientManagerPath string
	Canister          string
	DidFile           string
	Force             bool
	NoClient          bool
}

func NewInitOptions() *InitOptions {
	return &InitOptions{
		OutDir:            config.DefaultOutDir,
		ClientManagerPath: config.DefaultClientManagerPath,
	}
}

func NewCmd() *cobra.Command {
	o := NewInitOptions()

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create " + config.FileName + " in the current directory",
		Example: `  ic-reactor init
  ic-reactor init --canister backend --did src/backend/backend.did`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd)
		},
	}

	fset := pflag.NewFlagSet("init", pflag.ContinueOnError)
	fset.StringVarP(&o.OutDir, "out-dir", "o", o.OutDir,
		"Directory generated files are written to")
	fset.StringVar(&o.ClientManagerPath, "client-manager-path", o.ClientManagerPath,
		"Import path of the client manager, relative to a canister output directory")
	fset.StringVar(&o.Canister, "canister", o.Canister,
		"Name of a first canister to add")
	fset.StringVar(&o.DidFile, "did", o.DidFile,
		"Candid file of the first canister")
	fset.BoolVar(&o.Force, "force", o.Force,
		"Overwrite an existing "+config.FileName)
	fset.BoolVar(&o.NoClient, "no-client", o.NoClient,
		"Do not create "+codegen.ClientFileName)
	// kept so scripts written for the prompting installer keep working
	fset.BoolP("yes", "y", false, "Accept the defaults")
	_ = fset.MarkHidden("yes")
	initCmd.Flags().AddFlagSet(fset)

	return initCmd
}

func (o *InitOptions) Run(cmd *cobra.Command) error {
	configPath := util.ConfigPath()
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		configPath = filepath.Join(wd, config.FileName)
	}
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	root := filepath.Dir(configPath)

	if _, err := os.Stat(configPath); err == nil && !o.Force {
		return errors.Errorf("%s already exists, use --force to overwrite it", configPath)
	}

	cfg := config.Default()
	cfg.OutDir = o.OutDir
	cfg.ClientManagerPath = o.ClientManagerPath

	if o.Canister != "" || o.DidFile != "" {
		canister, err := o.canister(root)
		if err != nil {
			return err
		}
		cfg.Canisters[canister.Name] = canister
	}

	if err := config.Save(cfg, configPath); err != nil {
		return err
	}
	cmd.Println(output.GreenStr("✓ Created " + config.FileName))

	if err := config.EnsureDir(config.Resolve(root, cfg.OutDir)); err != nil {
		return errors.Wrapf(err, "failed to create %s", cfg.OutDir)
	}

	if !o.NoClient {
		created, err := codegen.WriteFileIfMissing(filepath.Join(root, codegen.ClientFileName), codegen.RenderClientFile)
		if err != nil {
			return err
		}
		if created {
			cmd.Println(output.GreenStr("✓ Created " + codegen.ClientFileName))
		}
	}

	log.Ctx(cmd.Context()).Debug().Str("path", configPath).Msg("project initialized")

	cmd.Println()
	cmd.Println("Next steps:")
	if len(cfg.Canisters) == 0 {
		cmd.Println("  1. Add a canister to " + config.FileName)
		cmd.Println("  2. Run " + output.YellowStr("ic-reactor generate"))
	} else {
		cmd.Println("  Run " + output.YellowStr("ic-reactor generate"))
	}
	return nil
}

func (o *InitOptions) canister(root string) (config.CanisterConfig, error) {
	if o.DidFile == "" {
		return config.CanisterConfig{}, errors.New("--did is required when adding a canister")
	}
	name := o.Canister
	if name == "" {
		name = codegen.DeclarationsBaseName(o.DidFile)
	}
	if !canisterNamePattern.MatchString(name) {
		return config.CanisterConfig{}, errors.Errorf(
			"invalid canister name %q: must start with a letter and contain only letters, numbers, _ and -", name)
	}
	if _, err := os.Stat(config.Resolve(root, o.DidFile)); err != nil {
		return config.CanisterConfig{}, errors.Errorf("File not found: %s", o.DidFile)
	}
	return config.CanisterConfig{Name: name, DidFile: o.DidFile}, nil
}
