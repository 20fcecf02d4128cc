package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GoldenFealla/framesync/internal/decoder"
	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/GoldenFealla/framesync/internal/player"
	"github.com/GoldenFealla/framesync/internal/transcode"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <file>...",
	Short: "Describe media files without playing them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		renderProbe(cmd, decoder.Prober{}, transcode.FromConfig(), args)
	},
}

func renderProbe(cmd *cobra.Command, prober media.Prober, tc transcode.Transcoder, paths []string) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Size", "FPS", "Frames", "Duration", "Audio", "Normalize"})

	failed := 0
	for _, p := range paths {
		item, err := prober.Probe(p)
		if err != nil {
			failed++
			t.AppendRow(table.Row{filepath.Base(p), text.FgHiRed.Sprint(player.Classify(err).Status()), "", "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			item.Name(),
			fmt.Sprintf("%dx%d", item.Width, item.Height),
			fmt.Sprintf("%.3f", item.FrameRate),
			item.TotalFrames,
			media.FormatTime(item.Duration),
			yesNo(item.HasAudio),
			yesNo(tc.Needed(item)),
		})
	}
	t.Render()

	if failed > 0 {
		os.Exit(1)
	}
}

func yesNo(b bool) string {
	if b {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgHiBlack.Sprint("no")
}
