package filestorage

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brandforge/gen-server/internal/config"
)

type FileInfo struct {
	Name      string
	Extension string
	Content   []byte
	IsTemp    bool
}

type FileStorage interface {
	Upload(file FileInfo) (string, error)
	GetFile(filename string) (*FileInfo, error)
	ResolveFile(filename string, subfolder string, isTemp bool) (string, error)
}

func NewFileInfo(name string, extension string, content []byte, isTemp bool) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
		IsTemp:    isTemp,
	}
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	switch strings.ToLower(cfg.FilesystemType) {
	case config.FilesystemLocal:
		return NewLocalFileStorage(cfg)
	case config.FilesystemS3:
		return NewS3FileStorage(cfg)
	}

	return nil, fmt.Errorf("invalid filesystem type %s", cfg.FilesystemType)
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

const maxNameLength = 64

// SanitizeName lowercases a caller-supplied name, strips anything outside
// [a-z0-9._-], and truncates it so it is safe to use in a filename.
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	if name == "" {
		name = "image"
	}

	return name
}

// TimestampedName builds a unique, sortable filename from a sanitized base
// name and a content hash fragment.
func TimestampedName(name string, hash string) string {
	if len(hash) > 8 {
		hash = hash[:8]
	}

	return fmt.Sprintf("%s-%s-%s", SanitizeName(name), time.Now().UTC().Format("20060102-150405"), hash)
}
