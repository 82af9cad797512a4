package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qazi0/OpenSuperWhisper/internal/audio"
	"github.com/qazi0/OpenSuperWhisper/internal/config"
	"github.com/qazi0/OpenSuperWhisper/internal/engine"
	"github.com/qazi0/OpenSuperWhisper/internal/inject"
	"github.com/qazi0/OpenSuperWhisper/internal/models"
	"github.com/qazi0/OpenSuperWhisper/internal/session"
	"github.com/qazi0/OpenSuperWhisper/internal/store"
	"github.com/qazi0/OpenSuperWhisper/internal/transcribe"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/opensuperwhisper/config.yaml)")
	record := flag.Bool("record", false, "capture from the microphone instead of reading files")
	download := flag.Bool("download", false, "download speech models and exit")
	historyN := flag.Int("history", 0, "print the N most recent transcriptions and exit")
	insert := flag.Bool("insert", false, "insert the final text into the active application")
	flag.Parse()

	if *download {
		if err := models.RunInteractiveDownload(); err != nil {
			fmt.Fprintf(os.Stderr, "download failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if *historyN > 0 {
		if err := printHistory(cfg.HistoryPath, *historyN); err != nil {
			fmt.Fprintf(os.Stderr, "history: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !*record && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: opensuperwhisper [flags] <audio-file> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	history, err := store.Open(cfg.HistoryPath)
	if err != nil {
		logger.Warn("history store unavailable", "error", err)
		history = nil
	}
	defer func() {
		if history != nil {
			history.Close()
		}
	}()

	opts := engine.Options{Logger: logger}
	if history != nil {
		opts.History = history
	}
	if *insert {
		opts.Clipboard = inject.NewInserter(cfg.Clipboard.Method)
	}

	sessions := session.NewManager()
	defer sessions.Close()
	eng := engine.New(sessions, opts)

	path, vendor, err := models.ActivePath(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loading %s model...\n", vendor)
	if err := eng.LoadModelSync(path, vendor); err != nil {
		fmt.Fprintf(os.Stderr, "model load failed: %v\n", err)
		os.Exit(1)
	}

	// Ctrl+C cancels the active transcription; a second one exits.
	ctx := context.Background()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ncancelling...")
		eng.Cancel()
		<-sigCh
		os.Exit(1)
	}()

	settings := cfg.Settings()

	if *record {
		if err := runRecord(ctx, eng, cfg, settings); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	exit := 0
	for _, file := range flag.Args() {
		fmt.Printf("\n%s:\n", file)
		text, err := runWithProgress(eng, func() (string, error) {
			return eng.Transcribe(ctx, file, settings)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			exit = 1
			continue
		}
		fmt.Println(text)
	}
	os.Exit(exit)
}

// runRecord captures from the default microphone until Enter is pressed, then
// transcribes the take.
func runRecord(ctx context.Context, eng *engine.Engine, cfg *config.Config, settings transcribe.Settings) error {
	rec, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	defer rec.Close()

	if err := rec.Start(); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	fmt.Println("Recording... press Enter to stop.")
	bufio.NewReader(os.Stdin).ReadString('\n')

	samples := rec.Stop()
	duration := float64(len(samples)) / float64(cfg.Audio.SampleRate)
	if duration < 0.3 {
		return fmt.Errorf("recording too short (%.1fs)", duration)
	}
	fmt.Printf("Captured %.1fs of audio, transcribing...\n", duration)

	text, err := runWithProgress(eng, func() (string, error) {
		return eng.TranscribeSamples(ctx, samples, int(cfg.Audio.SampleRate), settings)
	})
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// runWithProgress runs fn while printing engine progress to stderr.
func runWithProgress(eng *engine.Engine, fn func() (string, error)) (string, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		last := -1
		for {
			select {
			case <-done:
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				st := eng.State()
				if !st.IsTranscribing {
					continue
				}
				pct := int(st.Progress * 100)
				if pct != last {
					fmt.Fprintf(os.Stderr, "\r  %3d%%", pct)
					last = pct
				}
			}
		}
	}()

	text, err := fn()
	close(done)
	return text, err
}

func printHistory(path string, n int) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	items, err := st.Recent(n)
	if err != nil {
		return err
	}
	for _, t := range items {
		fmt.Printf("[%s] (%.1fs)\n%s\n\n", t.CreatedAt.Local().Format(time.DateTime), t.Duration, t.Text)
	}
	return nil
}

// loadConfig loads the config from the specified path, or falls back to the
// default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
