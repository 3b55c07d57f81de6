package util

import (
	"os"
	"path/filepath"
)

var (
	ConfigDir = filepath.Join(HomeDir(), ".config", "zenremote")
)

func HomeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

// OpenWithParents opens path like os.OpenFile, creating missing parent
// directories first.
func OpenWithParents(path string, flag int, perm os.FileMode) (*os.File, error) {
	if err := MakeParents(path); err != nil {
		return nil, err
	}
	return os.OpenFile(path, flag, perm)
}

func MakeParents(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(abs), 0755)
}
