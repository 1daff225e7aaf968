package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets a burst of writes to the config settle before it is read.
const reloadDelay = 100 * time.Millisecond

// Watch sends a freshly read config whenever path is written or replaced,
// until done is closed. Writes closer together than reloadDelay cause a
// single reload. Read errors go to errors and the previous config stays in
// use.
func Watch(path string, configs chan<- *Config, errors chan<- error, done <-chan struct{}) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	// editors save by replacing the file, which drops a watch on the file
	// itself
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		// ignore close error
		watcher.Close()
		return fmt.Errorf("can't watch %s: %w", path, err)
	}
	go watch(watcher, path, configs, errors, done)
	return nil
}

func watch(watcher *fsnotify.Watcher, path string, configs chan<- *Config, errors chan<- error, done <-chan struct{}) {
	// ignore close error
	defer watcher.Close()

	settle := time.NewTimer(reloadDelay)
	if !settle.Stop() {
		<-settle.C
	}
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settle.Reset(reloadDelay)
		case <-settle.C:
			c, err := ReadConfig(path)
			if err != nil {
				select {
				case errors <- err:
				case <-done:
					return
				}
				continue
			}
			log.Printf("config reloaded from %s", path)
			select {
			case configs <- c:
			case <-done:
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			select {
			case errors <- err:
			case <-done:
				return
			}
		case <-done:
			return
		}
	}
}
