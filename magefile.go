//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "svxaux"

var Default = Build

// Build compiles the svxaux binary
func Build() error {
	return sh.RunV("go", "build", "-o", binary, "./cmd/svxaux")
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// BuildHeadless compiles without the sound device backend for hosts
// lacking ALSA headers
func BuildHeadless() error {
	return sh.RunV("go", "build", "-tags", "nocgo", "-o", binary, "./cmd/svxaux")
}

// TestHeadless runs all tests with the nocgo tag
func TestHeadless() error {
	return sh.RunV("go", "test", "-tags", "nocgo", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Install copies the binary to ~/go/bin
func Install() error {
	mg.Deps(Build)
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(home, "go", "bin", binary), binary)
}

// Clean removes the build output
func Clean() error {
	return sh.Rm(binary)
}
