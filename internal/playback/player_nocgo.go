//go:build nocgo
// +build nocgo

package playback

import "context"

// Play is unavailable without cgo; the clip is still validated by PlayFile
func Play(ctx context.Context, pcm *PCM) error {
	return ErrUnavailable
}
