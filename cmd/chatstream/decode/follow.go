package decodecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// followReader reads a file that is still being written. At end of file it
// blocks until the file grows, and reports io.EOF once ctx is done or the
// file is removed.
type followReader struct {
	ctx     context.Context
	file    *os.File
	path    string
	watcher *fsnotify.Watcher
}

func newFollowReader(ctx context.Context, path string) (*followReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("creating capture watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are noticed.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		file.Close()
		return nil, fmt.Errorf("watching capture dir: %w", err)
	}

	return &followReader{
		ctx:     ctx,
		file:    file,
		path:    filepath.Clean(path),
		watcher: watcher,
	}, nil
}

func (f *followReader) Read(p []byte) (int, error) {
	for {
		n, err := f.file.Read(p)
		if n > 0 || (err != nil && !errors.Is(err, io.EOF)) {
			return n, err
		}

		if err := f.wait(); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the file may have grown.
func (f *followReader) wait() error {
	for {
		select {
		case <-f.ctx.Done():
			return io.EOF
		case event, ok := <-f.watcher.Events:
			if !ok {
				return io.EOF
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return io.EOF
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				return nil
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return io.EOF
			}
			return fmt.Errorf("capture watcher error: %w", err)
		}
	}
}

func (f *followReader) Close() error {
	return errors.Join(f.watcher.Close(), f.file.Close())
}
