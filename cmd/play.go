package cmd

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2/app"
	"github.com/GoldenFealla/framesync/internal/audio"
	"github.com/GoldenFealla/framesync/internal/decoder"
	"github.com/GoldenFealla/framesync/internal/effects"
	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/GoldenFealla/framesync/internal/player"
	"github.com/GoldenFealla/framesync/internal/playlist"
	"github.com/GoldenFealla/framesync/internal/transcode"
	"github.com/GoldenFealla/framesync/internal/widget"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)
	bindPlayFlags(playCmd)
}

// bindPlayFlags registers the playback flags on cmd. The root command plays too.
func bindPlayFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("mode", "m", "", "Playlist order: ctime, json or random")
	lo.Must0(cmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{playlist.CreationTime.String(), playlist.PersistedOrder.String(), playlist.Random.String()}, cobra.ShellCompDirectiveNoFileComp
	}))

	cmd.Flags().String("eq", "", "Equalizer preset")
	lo.Must0(cmd.RegisterFlagCompletionFunc("eq", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return effects.EqualizerPresets(), cobra.ShellCompDirectiveNoFileComp
	}))

	cmd.Flags().String("environment", "", "Simulated listening environment")
	cmd.Flags().String("position", "", "Simulated source position")
	cmd.Flags().Bool("denoise", false, "Apply spectral denoise")
	cmd.Flags().Bool("loudnorm", false, "Normalise loudness")
	cmd.Flags().IntP("volume", "V", 100, "Initial volume, 0 to 100")
	cmd.Flags().Bool("watch", true, "Follow files added to or removed from the folder")
}

// playFlags maps flags onto config keys. Flags are bound when the command runs since
// root and play share the names.
var playFlags = map[string]string{
	"mode":        key.PlaylistMode,
	"eq":          key.EffectsEqualizer,
	"environment": key.EffectsEnvironment,
	"position":    key.EffectsPosition,
	"denoise":     key.EffectsDenoise,
	"loudnorm":    key.EffectsLoudnorm,
	"volume":      key.AudioVolume,
	"watch":       key.PlaylistWatch,
}

var playCmd = &cobra.Command{
	Use:   "play [folder or file]",
	Short: "Open the player window",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(runPlay(cmd, args))
	},
}

func runPlay(cmd *cobra.Command, args []string) error {
	for name, k := range playFlags {
		if err := viper.BindPFlag(k, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := effects.FromConfig()
	if err := settings.Validate(); err != nil {
		return err
	}
	mode, err := playlist.ParseMode(viper.GetString(key.PlaylistMode))
	if err != nil {
		return err
	}

	opts := player.OptionsFromConfig()
	rate := viper.GetInt(key.AudioSampleRate)
	pipeline := audio.NewPipeline(rate, settings)

	surface := widget.NewVideoSurface(nil)
	engine := player.New(opts, player.Deps{
		Source:     func() media.FrameSource { return decoder.NewVideoSource() },
		Transcoder: transcode.FromConfig(),
		Audio:      pipeline,
		Output:     audio.NewOtoEngine(rate, opts.Volume),
		Presenter:  surface,
	})
	surface.OnResize(engine.Resize)

	scheduler := playlist.NewScheduler(mode, viper.GetString(key.PlaylistOrderFile))
	ctl := player.NewController(ctx, engine, scheduler, pipeline, viper.GetDuration(key.PlaybackAdvanceDelay))

	a := app.NewWithID("io.github.goldenfealla.framesync")
	controls := widget.NewControls(ctl, settings, opts.Volume)
	win := widget.NewWindow(a, ctl, surface, controls, viper.GetBool(key.PlaylistWatch))

	if len(args) == 1 {
		go func() {
			if err := open(ctl, args[0]); err != nil {
				log.For("cli").Warn(err)
			}
		}()
	}

	log.For("cli").WithField("workers", opts.Workers).Info("starting player")
	win.Run(ctx, viper.GetDuration(key.PlaybackTickInterval))
	return nil
}

// open plays a folder or a single file.
func open(ctl *player.Controller, path string) error {
	fi, err := filesystem.API().Stat(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if fi.IsDir() {
		return ctl.OpenFolder(path, viper.GetBool(key.PlaylistWatch))
	}
	return ctl.OpenFiles(path)
}
