// Chatstream CI
//
// Package main runs the chatstream tests and builds in containers, the same
// way locally and in CI.
package main

import (
	"context"

	"dagger/chatstream/internal/dagger"
)

// Chatstream is the CI module for the chatstream repository.
type Chatstream struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a Chatstream CI module instance.
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".chatstream", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Chatstream {
	return &Chatstream{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm Go container for platform with gcc
// and the SQLite headers installed, CGO enabled and the source mounted.
// go-sqlite3 needs CGO, so every build and test starts here.
func (c *Chatstream) goContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod-"+string(platform))).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithWorkdir("/src").
		WithDirectory("/src", c.Source)
}

// Test runs the unit tests, the decoder and storage suites included.
//
// +check
func (c *Chatstream) Test(ctx context.Context) (string, error) {
	return c.goContainer("").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
