package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// PrepareDir resolves the scratch directory for narration files and makes
// sure it exists. An empty dir means the OS temp directory.
func PrepareDir(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory %s: %w", dir, err)
	}
	return dir, nil
}

// Narrator turns a word into a short-lived audio file
type Narrator struct {
	synth  Synthesizer
	dir    string
	logger *zap.Logger
}

// NewNarrator creates a narrator writing into dir.
// A nil synth disables narration.
func NewNarrator(synth Synthesizer, dir string, logger *zap.Logger) *Narrator {
	return &Narrator{
		synth:  synth,
		dir:    dir,
		logger: logger,
	}
}

// Enabled reports whether a speech backend is configured
func (n *Narrator) Enabled() bool {
	return n.synth != nil
}

// Narrate synthesizes text into a temp MP3 file and hands its path to play.
// The file is removed before Narrate returns, whatever happened.
func (n *Narrator) Narrate(ctx context.Context, text, lang string, play func(path string) error) error {
	if n.synth == nil {
		return ErrNarrationDisabled
	}
	if lang == "" {
		lang = "en"
	}

	f, err := os.CreateTemp(n.dir, "narration-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			n.logger.Warn("Failed to remove audio file", zap.String("path", path), zap.Error(err))
		}
	}()

	n.logger.Info("Narration started", zap.String("text", text), zap.String("lang", lang))

	if err := n.synth.Synthesize(ctx, text, lang, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to synthesize %q: %w", text, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	if err := play(path); err != nil {
		return fmt.Errorf("failed to deliver audio: %w", err)
	}

	n.logger.Info("Narration finished", zap.String("text", text))
	return nil
}
