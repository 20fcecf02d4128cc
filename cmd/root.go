// Package cmd implements the framesync command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/GoldenFealla/framesync/internal/config"
	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level: panic, fatal, error, warn, info, debug or trace")
	lo.Must0(viper.BindPFlag(key.LogsLevel, rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file")
	lo.Must0(viper.BindPFlag(key.LogsFile, rootCmd.PersistentFlags().Lookup("log-file")))

	rootCmd.PersistentFlags().IntP("workers", "w", 0, "Frame processing workers, 0 uses every CPU")
	lo.Must0(viper.BindPFlag(key.ProcessingWorkers, rootCmd.PersistentFlags().Lookup("workers")))

	bindPlayFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   config.Name + " [folder or file]",
	Short: "Frame-accurate video player with playlists and audio effects",
	Args:  cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(runPlay(cmd, args))
	},
}

// Execute runs the command selected on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.For("cli").Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
