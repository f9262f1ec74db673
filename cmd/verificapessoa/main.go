package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:          "verificapessoa",
		Short:        "People background checks over public search engines",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(serveCMD(&cfgPath), migrateCMD(&cfgPath), searchCMD(&cfgPath), adminCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
