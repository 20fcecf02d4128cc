package cmd

import (
	"path/filepath"
	"time"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/GoldenFealla/framesync/internal/playlist"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.Flags().StringP("mode", "m", "", "Playlist order: ctime, json or random")
	playlistCmd.Flags().StringSlice("reorder", nil, "New order as file names, rewrites the persisted order")
	playlistCmd.Flags().Int("advance", 0, "Advance this many times and mark the item reached")
}

var playlistCmd = &cobra.Command{
	Use:   "playlist <folder>",
	Short: "Show the order a folder plays in",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode := lo.CoalesceOrEmpty(lo.Must(cmd.Flags().GetString("mode")), viper.GetString(key.PlaylistMode))
		m, err := playlist.ParseMode(mode)
		handleErr(err)

		s := playlist.NewScheduler(m, viper.GetString(key.PlaylistOrderFile))
		handleErr(s.LoadFolder(args[0]))

		if names := lo.Must(cmd.Flags().GetStringSlice("reorder")); len(names) > 0 {
			handleErr(s.Reorder(names))
		}
		for range lo.Must(cmd.Flags().GetInt("advance")) {
			s.Advance()
		}

		renderPlaylist(cmd, s)
	},
}

func renderPlaylist(cmd *cobra.Command, s *playlist.Scheduler) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s %s (%s)", filepath.Base(s.Folder()), s.Position(), s.Mode())
	t.AppendHeader(table.Row{"", "#", "File", "Modified"})

	current := s.CurrentIndex()
	for i, p := range s.Items() {
		mark := ""
		if i == current {
			mark = text.FgGreen.Sprint(">")
		}
		modified := ""
		if fi, err := filesystem.API().Stat(p); err == nil {
			modified = fi.ModTime().Format(time.DateTime)
		}
		t.AppendRow(table.Row{mark, i + 1, filepath.Base(p), modified})
	}
	t.Render()
}
