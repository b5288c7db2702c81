package cmd

import (
	"songclub/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Song Club HTTP server",
	Long:  `Start the Song Club HTTP server, serving the track, comment, reaction and auth APIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
