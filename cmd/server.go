package cmd

import (
	"podcastr/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Podcastr服务器",
	Long:  `启动Podcastr的HTTP服务器，提供页面、播放控制接口和WebSocket状态推送`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
