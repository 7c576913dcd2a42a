package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"audio-diary/config"
	"audio-diary/pkg/executor"
)

// Transcriber converts one audio file to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// whisperTranscriber shells out to whisper.cpp. The model handle is a
// process-wide singleton checked once on first use.
type whisperTranscriber struct {
	cfg  config.Whisper
	exec executor.Executor

	once    sync.Once
	initErr error
}

func NewWhisperTranscriber(cfg config.Whisper, exec executor.Executor) Transcriber {
	return &whisperTranscriber{cfg: cfg, exec: exec}
}

func (t *whisperTranscriber) init() {
	if _, err := os.Stat(t.cfg.ModelPath); err != nil {
		t.initErr = fmt.Errorf("whisper model %s: %w", t.cfg.ModelPath, err)
	}
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	t.once.Do(t.init)
	if t.initErr != nil {
		return "", t.initErr
	}

	outDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outputPrefix := filepath.Join(outDir, "transcript")

	// -otxt makes whisper-cli write <prefix>.txt alongside its stdout.
	args := []string{
		"-m", t.cfg.ModelPath,
		"-f", audioPath,
		"-otxt",
		"-l", t.cfg.Language,
		"-t", strconv.Itoa(t.cfg.Threads),
		"--output-file", outputPrefix,
	}

	zerolog.Ctx(ctx).Info().
		Str("audio", audioPath).
		Str("model", t.cfg.ModelPath).
		Msg("transcribing audio")

	if _, err := t.exec.Execute(ctx, t.cfg.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	raw, err := os.ReadFile(outputPrefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("read transcript output: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
