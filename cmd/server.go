package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mattislub/Timed-Audio-Queue/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP API server",
	Long:  `Runs the API server: clip upload and playback, share records, repeat configuration, and the expiry reaper.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(loadConfig())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
