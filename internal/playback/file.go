package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrUnavailable is returned by Play in builds without a sound device
var ErrUnavailable = errors.New("audio playback not available in nocgo build")

// PlayFile plays the WAVE file at path
func PlayFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read clip: %w", err)
	}
	pcm, err := ParseWAV(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return Play(ctx, pcm)
}
