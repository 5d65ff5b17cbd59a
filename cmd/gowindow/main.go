// Command gowindow evaluates a window clause over JSON input files.
//
// Each input is a JSON array or a stream of JSON values (NDJSON). Windows
// are written to stdout as one JSON object per line, in input order:
//
//	gowindow run --clause clause.json events-1.ndjson events-2.ndjson
//	cat events.ndjson | gowindow run --clause clause.json
//	gowindow validate --clause clause.json
//
// Configuration is read from gowindow.yaml (or --config) and GOWINDOW_*
// environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gowindow",
		Short:         "Tumbling and sliding windows over JSON streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./gowindow.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("debug", false, "log window boundaries")

	root.AddCommand(newRunCmd(a), newValidateCmd(a), newVersionCmd())
	return root
}
