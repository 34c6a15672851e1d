// Package web holds the station dashboard served by the monitor.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv names the variable that makes the monitor serve the dashboard
// from the source tree, so that edits show up without a rebuild.
const DevModeEnv = "LLRF_MONITOR_DEV"

//go:embed dist/*
var embedded embed.FS

// Assets returns the dashboard files.
func Assets() http.FileSystem {
	if devMode() {
		dir := sourceDir()
		slog.Warn("serving monitor dashboard from source", "dir", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(embedded, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))
	return err == nil && on
}

func sourceDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the dashboard sources")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}
