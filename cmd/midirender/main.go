package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/cbegin/midisynth-go"
)

func main() {
	var (
		midiPath   = flag.String("file", "", "path to a Standard MIDI File")
		outPath    = flag.String("out", "", "write a 16-bit WAV to this path")
		configPath = flag.String("config", "", "JSON configuration file")
		quality    = flag.String("quality", "hq", "render quality: hq|standard")
		sfPath     = flag.String("soundfont", "", "SoundFont (.sf2) for high-quality renders")
		play       = flag.Bool("play", false, "play the result after rendering")
		volume     = flag.Float64("volume", 1.0, "playback volume scalar")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if strings.TrimSpace(*midiPath) == "" {
		log.Fatal("-file is required")
	}
	if *outPath == "" && !*play {
		log.Fatal("nothing to do: give -out and/or -play")
	}
	q, err := midisynth.ParseQuality(*quality)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *sfPath != "" {
		cfg.SoundFont = *sfPath
	}
	engine, err := midisynth.New(cfg, midisynth.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	in, err := homedir.Expand(*midiPath)
	if err != nil {
		log.Fatal(err)
	}
	res, err := engine.RenderFile(ctx, in, q)
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	if *outPath != "" {
		if err := writeWAV(*outPath, res); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%s, %d notes)\n", *outPath, res.Duration, res.Stats.Rendered)
	}
	if *play {
		pl, err := midisynth.NewPlayer(res)
		if err != nil {
			log.Fatal(err)
		}
		pl.SetMasterVolume(*volume)
		if err := pl.Play(); err != nil {
			log.Fatal(err)
		}
		go func() {
			<-ctx.Done()
			pl.Stop()
		}()
		pl.Wait()
		fmt.Println("playback completed")
	}
}

func loadConfig(path string) (*midisynth.Config, error) {
	if strings.TrimSpace(path) == "" {
		return midisynth.DefaultConfig(), nil
	}
	return midisynth.LoadConfig(path)
}

func writeWAV(path string, res *midisynth.Result) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if err := midisynth.WriteWAV(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
