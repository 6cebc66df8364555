//go:build mage
// +build mage

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/mholt/archiver"
)

const (
	executableName = "gitwiki"
	outputPath     = "dist"
)

// platform is one GOOS/GOARCH pair a release is built for.
type platform struct {
	goos, goarch string
	suffix       string
	archive      string
}

var platforms = []platform{
	{goos: "linux", goarch: "amd64", archive: ".tar.gz"},
	{goos: "linux", goarch: "arm64", archive: ".tar.gz"},
	{goos: "darwin", goarch: "amd64", archive: ".tar.gz"},
	{goos: "darwin", goarch: "arm64", archive: ".tar.gz"},
	{goos: "windows", goarch: "amd64", suffix: ".exe", archive: ".zip"},
}

func (p platform) name(version string) string {
	return fmt.Sprintf("%s_%s_%s_%s", executableName, p.goos, p.goarch, version)
}

// Test runs the unit tests of every package.
func Test() error {
	fmt.Printf("Running tests\n")
	return sh.RunV(mg.GoCmd(), "test", "-race", "./...")
}

// Clean removes everything written to the dist folder.
func Clean() error {
	fmt.Printf("Removing %s\n", outputPath)
	return os.RemoveAll(outputPath)
}

// Build cross-compiles a static binary for every platform into dist.
func Build() error {
	version := releaseVersion()
	built, err := commitTime()
	if err != nil {
		return err
	}

	ldflags := strings.Join([]string{"-s", "-w", fmt.Sprintf(`-X "main.version=%s"`, version)}, " ")
	for _, p := range platforms {
		fmt.Printf("Compiling %s/%s\n", p.goos, p.goarch)
		out := filepath.Join(outputPath, p.name(version)+p.suffix)
		env := map[string]string{
			"CGO_ENABLED": "0",
			"GOOS":        p.goos,
			"GOARCH":      p.goarch,
		}
		if err := sh.RunWithV(env, mg.GoCmd(), "build", "-trimpath", "-ldflags="+ldflags, "-o", out, "."); err != nil {
			return fmt.Errorf("building %s/%s: %w", p.goos, p.goarch, err)
		}
		// Reproducible archives need a stable mtime.
		if err := os.Chtimes(out, built, built); err != nil {
			return err
		}
	}
	return nil
}

// Archive packages each binary built by Build as a tarball, or a zip on windows.
func Archive() {
	mg.SerialDeps(Test, Build)
	version := releaseVersion()
	for _, p := range platforms {
		name := p.name(version)
		binary := filepath.Join(outputPath, name+p.suffix)
		if err := archiver.Archive([]string{binary}, filepath.Join(outputPath, name+p.archive)); err != nil {
			log.Printf("Error archiving %s/%s: %v", p.goos, p.goarch, err)
		}
	}
}

// releaseVersion is the nearest tag, or dev for untagged checkouts.
func releaseVersion() string {
	tag, err := sh.Output("git", "describe", "--tags")
	if err != nil {
		log.Printf("No tag found, building as dev: %v", err)
		return "dev"
	}
	return tag
}

// commitTime is BUILDTIME if set, otherwise the time of the HEAD commit.
func commitTime() (time.Time, error) {
	stamp := os.Getenv("BUILDTIME")
	if stamp == "" {
		var err error
		if stamp, err = sh.Output("git", "show", "-s", "--format=%ci", "HEAD"); err != nil {
			return time.Time{}, err
		}
	}
	return time.Parse("2006-01-02 15:04:05 -0700", stamp)
}
