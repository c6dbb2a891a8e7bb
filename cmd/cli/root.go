package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/B3Pay/ic-reactor-sub004/cmd/cli/generate"
	"github.com/B3Pay/ic-reactor-sub004/cmd/cli/initialize"
	"github.com/B3Pay/ic-reactor-sub004/cmd/cli/list"
	"github.com/B3Pay/ic-reactor-sub004/cmd/cli/schema"
	synccmd "github.com/B3Pay/ic-reactor-sub004/cmd/cli/sync"
	"github.com/B3Pay/ic-reactor-sub004/cmd/cli/version"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/flags"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util/flags/cliflags"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
	"github.com/B3Pay/ic-reactor-sub004/pkg/system"
	"github.com/B3Pay/ic-reactor-sub004/pkg/telemetry"
)

const environmentVariablePrefix = "IC_REACTOR"

func NewRootCmd() *cobra.Command {
	loggingMode := logger.LogModeDefault
	if logType, set := os.LookupEnv("LOG_TYPE"); set {
		loggingMode = logger.LogMode(strings.ToLower(logType))
	}
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "ic-reactor",
		Short:         "Generate typed reactors and hooks for Internet Computer canisters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			logger.ConfigureLogging(loggingMode)

			cm := system.NewCleanupManager()
			cm.RegisterCallback(telemetry.Cleanup)
			ctx = util.WithCleanupManager(ctx, cm)

			var names []string
			for c := cmd; c.HasParent(); c = c.Parent() {
				names = append([]string{c.Name()}, names...)
			}
			ctx, span := telemetry.NewRootSpan(ctx, fmt.Sprintf("ic-reactor.%s", strings.Join(names, ".")))
			ctx = context.WithValue(ctx, spanKey, span)

			cmd.SetContext(ctx)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if span, ok := ctx.Value(spanKey).(trace.Span); ok {
				span.End()
			}
			util.CleanupManager(ctx).Cleanup(ctx)
		},
	}

	rootCmd.AddCommand(initialize.NewCmd())
	rootCmd.AddCommand(generate.NewCmd())
	rootCmd.AddCommand(list.NewCmd())
	rootCmd.AddCommand(synccmd.NewCmd())
	rootCmd.AddCommand(schema.NewCmd())
	rootCmd.AddCommand(version.NewCmd())

	rootCmd.PersistentFlags().Var(
		flags.LoggingFlag(&loggingMode), "log-mode",
		`Log format: 'default','json','combined','event'`,
	)
	rootCmd.PersistentFlags().AddFlagSet(cliflags.ConfigFlags(&configPath))
	_ = viper.BindPFlag(util.ConfigPathKey, rootCmd.PersistentFlags().Lookup("config"))

	return rootCmd
}

func Execute() {
	rootCmd := NewRootCmd()

	// Ensure commands are able to stop cleanly if someone presses ctrl+c
	ctx, cancel := signal.NotifyContext(context.Background(), system.ShutdownSignals...)
	defer cancel()
	rootCmd.SetContext(ctx)

	telemetry.SetupFromEnvs()

	viper.SetEnvPrefix(environmentVariablePrefix)
	viper.AutomaticEnv()

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		util.Fatal(rootCmd, err, 1)
	}
}

type contextKey struct {
	name string
}

var spanKey = contextKey{name: "context key for storing the root span"}
