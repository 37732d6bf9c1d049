package filestorage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brandforge/gen-server/internal/config"
)

type LocalFileStorage struct {
	cfg       *config.Config
	assetsDir string
	tempDir   string
}

func NewLocalFileStorage(cfg *config.Config) (*LocalFileStorage, error) {
	return &LocalFileStorage{
		cfg:       cfg,
		assetsDir: cfg.AssetsDir,
		tempDir:   cfg.TempDir,
	}, nil
}

func (u *LocalFileStorage) Upload(file FileInfo) (string, error) {
	var filedest string
	if file.IsTemp {
		filedest = filepath.Join(u.tempDir, fmt.Sprintf("%s%s", file.Name, file.Extension))
	} else {
		filedest = filepath.Join(u.assetsDir, fmt.Sprintf("%s%s", file.Name, file.Extension))
	}

	if err := os.MkdirAll(filepath.Dir(filedest), os.ModePerm); err != nil {
		return "", err
	}

	if err := writeFileAtomic(filedest, file.Content); err != nil {
		return "", err
	}

	return fmt.Sprintf("http://%s:%d/file/%s%s", u.cfg.Host, u.cfg.Port, file.Name, file.Extension), nil
}

func (u *LocalFileStorage) GetFile(filename string) (*FileInfo, error) {
	content, err := os.ReadFile(filepath.Join(u.assetsDir, filename))
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Name:      filename,
		Extension: filepath.Ext(filename),
		Content:   content,
		IsTemp:    false,
	}, nil
}

func (u *LocalFileStorage) ResolveFile(filename string, subfolder string, isTemp bool) (string, error) {
	var resolvedFilename string
	if isTemp {
		resolvedFilename = filepath.Join(u.tempDir, subfolder, filename)
	} else {
		resolvedFilename = filepath.Join(u.assetsDir, subfolder, filename)
	}

	if _, err := os.Stat(resolvedFilename); err != nil {
		return "", err
	}

	return resolvedFilename, nil
}

// writeFileAtomic writes to a temp file in the destination directory and
// renames it into place, so a concurrent reader never sees partial bytes.
func writeFileAtomic(filedest string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filedest), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), filedest)
}
