// Command transcribe sends a local audio or video file through the Soniox
// transcription workflow and writes the transcript next to the input file.
package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/snarg/voicebridge/internal/config"
	"github.com/snarg/voicebridge/internal/soniox"
)

func main() {
	var (
		output   string
		envFile  string
		logLevel string
	)
	flag.StringVar(&output, "o", "", "output text file (defaults to <input>.txt)")
	flag.StringVar(&envFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input-file>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		log.Fatal().Str("path", inputPath).Msg("input file does not exist or is not a regular file")
	}

	outputPath := output
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + ".txt"
	}

	cfg, err := config.LoadSoniox(envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	contentType := detectMimeType(inputPath)
	log.Info().Str("mime_type", contentType).Msg("detected MIME type")

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read input file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	client := soniox.NewClient(cfg.BaseURL, cfg.Token, cfg.Model, cfg.LanguageHints, httpClient, log)
	poller := soniox.NewPoller(client, cfg.PollMaxAttempts, cfg.PollDelay, log)
	workflow := soniox.NewWorkflow(client, poller, cfg.CleanupTimeout, log)

	log.Info().Str("file", filepath.Base(inputPath)).Msg("starting transcription")
	text, err := workflow.Run(ctx, payload, contentType)
	if err != nil {
		log.Fatal().Str("reason", soniox.UserMessage(err)).Msg("transcription failed")
	}

	if err := os.WriteFile(outputPath, []byte(text+"\n"), 0o644); err != nil {
		log.Fatal().Err(err).Msg("failed to write transcript file")
	}
	log.Info().Str("path", outputPath).Msg("transcript written")
}

// detectMimeType guesses the MIME type from the file extension, falling back
// to a generic binary label the service accepts as advisory.
func detectMimeType(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
