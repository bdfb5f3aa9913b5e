//go:build !nocgo
// +build !nocgo

package playback

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// The sound device can only be opened once per process
var (
	device     *oto.Context
	deviceOpts oto.NewContextOptions
	deviceErr  error
	deviceOnce sync.Once
)

func openDevice(opts oto.NewContextOptions) (*oto.Context, error) {
	deviceOnce.Do(func() {
		var ready chan struct{}
		device, ready, deviceErr = oto.NewContext(&opts)
		if deviceErr != nil {
			deviceErr = fmt.Errorf("failed to open sound device: %w", deviceErr)
			return
		}
		<-ready
		deviceOpts = opts
	})
	if deviceErr != nil {
		return nil, deviceErr
	}
	if deviceOpts.SampleRate != opts.SampleRate || deviceOpts.ChannelCount != opts.ChannelCount || deviceOpts.Format != opts.Format {
		return nil, fmt.Errorf("sound device already opened with %d Hz, %d channels", deviceOpts.SampleRate, deviceOpts.ChannelCount)
	}
	return device, nil
}

func sampleFormat(bits int) (oto.Format, error) {
	switch bits {
	case 8:
		return oto.FormatUnsignedInt8, nil
	case 16:
		return oto.FormatSignedInt16LE, nil
	default:
		return 0, fmt.Errorf("unsupported sample size: %d bits", bits)
	}
}

// Play plays pcm and blocks until it finished or ctx is done
func Play(ctx context.Context, pcm *PCM) error {
	format, err := sampleFormat(pcm.BitsPerSample)
	if err != nil {
		return err
	}
	otoCtx, err := openDevice(oto.NewContextOptions{
		SampleRate:   pcm.SampleRate,
		ChannelCount: pcm.Channels,
		Format:       format,
	})
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(bytes.NewReader(pcm.Data))
	defer player.Close()

	log.Debug("Playing clip", "rate", pcm.SampleRate, "channels", pcm.Channels, "bytes", len(pcm.Data))
	player.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}
