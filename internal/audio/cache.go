package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"

	"codeberg.org/svxlink/svxaux/internal/mary"
)

// Cache stores synthesized audio on disk, zstd compressed. Entries live in
// <dir>/<first two hash chars>/<rest of hash>.zst.
type Cache struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCache creates the cache directory and the codec
func NewCache(dir string, compressionLevel int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	level := zstd.SpeedDefault
	if compressionLevel > 0 {
		level = zstd.EncoderLevelFromZstd(compressionLevel)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Cache{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Key derives the cache key from everything that changes the server's output
func (c *Cache) Key(req *mary.Request) string {
	h := sha256.New()
	for _, part := range []string{req.Text, req.Voice, req.Locale, req.InputType, req.AudioType, req.Style} {
		h.Write([]byte(strconv.Quote(part)))
	}
	for _, e := range req.Effects {
		h.Write([]byte(strconv.Quote(e.Name + ":" + e.Params)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached audio for key
func (c *Cache) Get(key string) ([]byte, bool) {
	compressed, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	data, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		// Corrupt entry, drop it
		_ = os.Remove(c.path(key))
		return nil, false
	}
	return data, true
}

// Put stores data under key
func (c *Cache) Put(key string, data []byte) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(c.encoder.EncodeAll(data, nil)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Clear removes all cached audio files
func (c *Cache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Stats returns the number of entries and their size on disk
func (c *Cache) Stats() (fileCount int, totalSize int64, err error) {
	err = filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".zst" {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	return fileCount, totalSize, err
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key[:2], key[2:]+".zst")
}
