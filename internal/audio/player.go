package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gymtimer/internal/core/tones"
)

// ErrNoPlayer indicates no command-line audio player was found.
var ErrNoPlayer = errors.New("no audio player available")

// playTimeout bounds a single player invocation.
const playTimeout = 5 * time.Second

var defaultPlayers = []string{"pw-play", "paplay", "aplay", "afplay"}

// Config selects the player command.
type Config struct {
	// Command overrides player discovery, e.g. "aplay -q".
	Command    string
	SampleRate int
}

// Player renders tones to WAV and hands them to an external player command.
// Without a player it drops tones silently.
type Player struct {
	config Config
	log    zerolog.Logger

	mu       sync.Mutex
	command  []string
	resolved bool
	warned   bool
	tempDir  string

	lookPath  func(string) (string, error)
	run       func(ctx context.Context, name string, args ...string) error
	afterFunc func(time.Duration, func())
}

// NewPlayer creates a Player. Discovery runs on first use.
func NewPlayer(config Config, log zerolog.Logger) *Player {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	return &Player{
		config:   config,
		log:      log.With().Str("component", "audio").Logger(),
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		afterFunc: func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		},
	}
}

// Resume resolves the player command so the first cue is not delayed.
func (player *Player) Resume() error {
	if player.resolve() == nil {
		return ErrNoPlayer
	}
	return nil
}

// EmitTone plays tone after its delay without blocking the caller.
func (player *Player) EmitTone(tone tones.Tone) {
	command := player.resolve()
	if command == nil {
		return
	}
	samples := Render(tone, player.config.SampleRate)
	if len(samples) == 0 {
		return
	}
	wav := EncodeWAV(samples, player.config.SampleRate)

	play := func() {
		if err := player.play(command, wav); err != nil {
			player.log.Debug().Err(err).Float64("frequency", tone.Frequency).Msg("tone playback failed")
		}
	}
	if tone.Delay > 0 {
		player.afterFunc(tone.Delay, play)
		return
	}
	go play()
}

// Close removes rendered files.
func (player *Player) Close() error {
	player.mu.Lock()
	dir := player.tempDir
	player.tempDir = ""
	player.mu.Unlock()
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

func (player *Player) resolve() []string {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.resolved {
		return player.command
	}
	player.resolved = true

	candidates := defaultPlayers
	if override := strings.Fields(player.config.Command); len(override) > 0 {
		candidates = nil
		if path, err := player.lookPath(override[0]); err == nil {
			player.command = append([]string{path}, override[1:]...)
		}
	}
	for _, name := range candidates {
		if path, err := player.lookPath(name); err == nil {
			player.command = []string{path}
			break
		}
	}

	if player.command == nil {
		if !player.warned {
			player.warned = true
			player.log.Debug().Msg("no audio player found; tones disabled")
		}
		return nil
	}
	player.log.Debug().Str("player", player.command[0]).Msg("audio player selected")
	return player.command
}

func (player *Player) play(command []string, wav []byte) error {
	dir, err := player.ensureTempDir()
	if err != nil {
		return err
	}
	file, err := os.CreateTemp(dir, "tone-*.wav")
	if err != nil {
		return fmt.Errorf("create tone file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)
	if _, err := file.Write(wav); err != nil {
		_ = file.Close()
		return fmt.Errorf("write tone file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close tone file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()
	args := append(append([]string(nil), command[1:]...), path)
	if err := player.run(ctx, command[0], args...); err != nil {
		return fmt.Errorf("run %s: %w", filepath.Base(command[0]), err)
	}
	return nil
}

func (player *Player) ensureTempDir() (string, error) {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.tempDir != "" {
		return player.tempDir, nil
	}
	dir, err := os.MkdirTemp("", "gymtimer-audio-")
	if err != nil {
		return "", fmt.Errorf("create audio temp dir: %w", err)
	}
	player.tempDir = dir
	return dir, nil
}
