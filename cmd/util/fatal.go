package util

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/B3Pay/ic-reactor-sub004/cmd/util/output"
)

// Fatal prints err and exits. Tests replace it with FakeFatalErrorHandler.
var Fatal = fatalError

func fatalError(cmd *cobra.Command, err error, code int) {
	if msg := err.Error(); msg != "" {
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		cmd.PrintErr(output.RedStr(msg))
	}
	os.Exit(code)
}

// FakeFatalErrorHandler prints err without exiting.
func FakeFatalErrorHandler(cmd *cobra.Command, err error, code int) {
	cmd.PrintErrf("exit %d: %s\n", code, err)
}
