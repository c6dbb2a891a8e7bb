package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/exp/slices"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
	"github.com/B3Pay/ic-reactor-sub004/pkg/codegen"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

const defaultDebounce = 200 * time.Millisecond

type SyncOptions struct {
	Canister string
	Watch    bool
	Debounce time.Duration
}

func NewSyncOptions() *SyncOptions {
	return &SyncOptions{Debounce: defaultDebounce}
}

func NewCmd() *cobra.Command {
	o := NewSyncOptions()

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Regenerate reactors after Candid files changed",
		Long: `Sync compares each canister's Candid file with the methods recorded at the
last generation, reports added and removed methods and regenerates
index.generated.ts. Declarations are regenerated when missing or out of
date. index.ts wrappers are never touched.`,
		Example: `  ic-reactor sync
  ic-reactor sync -c backend --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd)
		},
	}

	fset := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	fset.StringVarP(&o.Canister, "canister", "c", o.Canister,
		"Only sync this canister")
	fset.BoolVarP(&o.Watch, "watch", "w", o.Watch,
		"Keep running and sync whenever a Candid file changes")
	fset.DurationVar(&o.Debounce, "debounce", o.Debounce,
		"How long to wait for more changes before syncing in watch mode")
	syncCmd.Flags().AddFlagSet(fset)

	return syncCmd
}

// Summary counts the files written and preserved by a sync.
type Summary struct {
	Updated int
	Skipped int
	Errors  []string
}

func (o *SyncOptions) Run(cmd *cobra.Command) error {
	project, err := util.LoadProject(util.ConfigPath())
	if err != nil {
		return err
	}
	names, err := o.canisters(project.Config)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println(output.YellowStr("No hooks have been generated yet. Run 'ic-reactor generate' first."))
		return nil
	}

	summary := Sync(cmd, project, names)
	printSummary(cmd, summary)
	if !o.Watch {
		return nil
	}
	return o.watch(cmd, project, names)
}

func (o *SyncOptions) canisters(cfg *config.Config) ([]string, error) {
	if o.Canister != "" {
		return cfg.CanisterNames(o.Canister)
	}
	names, err := cfg.CanisterNames("")
	if err != nil {
		return nil, err
	}
	return lo.Filter(names, func(name string, _ int) bool {
		_, ok := cfg.GeneratedHooks[name]
		return ok
	}), nil
}

// Sync regenerates the named canisters and saves the methods now present.
func Sync(cmd *cobra.Command, project *util.Project, names []string) Summary {
	var summary Summary
	changed := false
	for _, name := range names {
		methods, err := syncCanister(cmd, project, name, &summary)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", name, err))
			continue
		}
		current := lo.Map(methods, func(m idl.MethodInfo, _ int) string { return m.Name })
		changed = project.Config.SetGeneratedHooks(name, current) || changed
	}
	if changed {
		if err := project.Save(); err != nil {
			summary.Errors = append(summary.Errors, err.Error())
		}
	}
	return summary
}

func syncCanister(cmd *cobra.Command, project *util.Project, name string, summary *Summary) ([]idl.MethodInfo, error) {
	cfg := project.Config
	canister := cfg.Canisters[name]
	didFile := config.Resolve(project.Root, canister.DidFile)

	methods, err := idl.ParseMethodsFile(didFile)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse DID file")
	}

	previous := cfg.GeneratedHooks[name]
	current := lo.Map(methods, func(m idl.MethodInfo, _ int) string { return m.Name })
	added, removed := lo.Difference(current, previous)
	if len(removed) > 0 {
		cmd.Println(output.YellowStr(fmt.Sprintf("%s: Methods removed from DID: %s", name, strings.Join(removed, ", "))))
	}
	if len(added) > 0 && len(previous) > 0 {
		cmd.Printf("%s: New methods available: %s\n", name, strings.Join(added, ", "))
	}

	outDir := config.Resolve(project.Root, cfg.CanisterOutDir(name))
	if err := config.EnsureDir(outDir); err != nil {
		return nil, err
	}
	if !codegen.DeclarationsUpToDate(outDir, didFile) {
		if _, err := codegen.GenerateDeclarations(codegen.DeclarationsOptions{
			DidFile:      didFile,
			OutDir:       outDir,
			CanisterName: name,
		}); err != nil {
			cmd.Println(output.YellowStr(fmt.Sprintf("%s: Could not regenerate declarations: %s", name, err)))
		} else {
			summary.Updated++
		}
	}

	if _, err := codegen.WriteReactorFile(cfg, name, outDir, canister.DidFile, methods); err != nil {
		return nil, err
	}
	summary.Updated++

	created, err := codegen.WriteFileIfMissing(filepath.Join(outDir, codegen.IndexFileName), codegen.RenderIndexFile)
	if err != nil {
		return nil, err
	}
	if created {
		summary.Updated++
	} else {
		summary.Skipped++
	}

	log.Ctx(cmd.Context()).Debug().Str("canister", name).Int("methods", len(methods)).Msg("canister synced")
	return methods, nil
}

func printSummary(cmd *cobra.Command, summary Summary) {
	if len(summary.Errors) > 0 {
		cmd.Println()
		cmd.Println(output.RedStr("Errors encountered:"))
		for _, msg := range summary.Errors {
			cmd.Printf("  %s %s\n", output.RedStr("•"), msg)
		}
	}
	cmd.Println()
	cmd.Printf("Updated: %s files\n", output.GreenStr(fmt.Sprint(summary.Updated)))
	cmd.Printf("Skipped: %s files (preserved customizations)\n", output.FaintStr(fmt.Sprint(summary.Skipped)))
}

// watch syncs a canister whenever its Candid file changes, until the
// command context is done. Directories are watched rather than files so
// editors that replace files on save are followed.
func (o *SyncOptions) watch(cmd *cobra.Command, project *util.Project, names []string) error {
	ctx := cmd.Context()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to start file watcher")
	}
	util.CleanupManager(ctx).RegisterCallback(watcher.Close)

	byFile := map[string][]string{}
	for _, name := range names {
		didFile := filepath.Clean(config.Resolve(project.Root, project.Config.Canisters[name].DidFile))
		byFile[didFile] = append(byFile[didFile], name)
	}
	dirs := lo.Uniq(lo.Map(lo.Keys(byFile), func(f string, _ int) string { return filepath.Dir(f) }))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}
	cmd.Println(output.FaintStr(fmt.Sprintf("Watching %d Candid file(s) for changes...", len(byFile))))

	return watchLoop(ctx, watcher, byFile, o.Debounce, func(pending []string) {
		printSummary(cmd, Sync(cmd, project, pending))
	})
}

func watchLoop(
	ctx context.Context, watcher *fsnotify.Watcher, byFile map[string][]string,
	debounce time.Duration, onChange func([]string),
) error {
	pending := map[string]struct{}{}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			names, watched := byFile[filepath.Clean(event.Name)]
			if !watched {
				continue
			}
			for _, name := range names {
				pending[name] = struct{}{}
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Ctx(ctx).Warn().Err(err).Msg("file watcher error")
		case <-timer.C:
			names := lo.Keys(pending)
			pending = map[string]struct{}{}
			slices.Sort(names)
			onChange(names)
		}
	}
}
