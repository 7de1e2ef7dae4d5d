package utils

import (
	"context"
	"os"
	"path/filepath"
)

// LocalStore keeps objects on disk under Root and serves them from URLPrefix.
// Used when R2 is not configured.
type LocalStore struct {
	Root      string
	URLPrefix string
}

func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStore{Root: root, URLPrefix: urlPrefix}, nil
}

func (l *LocalStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	destPath := filepath.Join(l.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return "", err
	}
	return l.URLPrefix + "/" + filepath.ToSlash(key), nil
}
