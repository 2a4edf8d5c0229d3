package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HammerMeetNail/resumebuilder/internal/config"
	"github.com/HammerMeetNail/resumebuilder/internal/logging"
)

var version = "dev"

type rootOptions struct {
	apiURL string
	token  string
	debug  bool
}

func newRootCmd() *cobra.Command {
	clientCfg := config.LoadClient()
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "resumectl",
		Short:        "Command-line client for the resume builder API",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				logging.SetDefaultLevel(logging.LevelDebug)
			} else {
				logging.SetDefaultLevel(logging.LevelError)
			}
			logging.Default.SetOutput(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", clientCfg.APIURL, "API base URL (RESUME_API_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", clientCfg.Token, "session token (RESUME_API_TOKEN)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log retries and other diagnostics to stderr")

	root.AddCommand(newSuggestCmd(opts, clientCfg))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "resumectl %s\n", version)
		},
	})
	return root
}
