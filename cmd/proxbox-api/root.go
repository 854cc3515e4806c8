package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "proxbox-api",
	Short: "Proxmox to NetBox synchronization backend",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
