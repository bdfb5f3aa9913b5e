// Package playback plays rendered WAVE clips on the local sound device so
// an announcement can be previewed before it goes on the air.
package playback
