package main

import (
	"os"
	"path/filepath"
)

// runDir is the directory midctl writes scratch store/flat-node files into
// when the config doesn't name one explicitly. Created lazily on first use.
var runDir string

func filepathTemp(name string) string {
	if runDir == "" {
		dir, err := os.MkdirTemp("", "midctl-")
		if err != nil {
			dir = "."
		}
		runDir = dir
	}
	return filepath.Join(runDir, name)
}
