package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"hotelbooking/internal/domain/catalog"
)

const (
	MaxFileSize    = 50 * 1024 * 1024 // 50 MB
	UploadsBaseDir = "./uploads"
	StaticURLBase  = "/static/uploads"
)

// allowedMimeTypes maps accepted types to the media kind they produce.
var allowedMimeTypes = map[string]catalog.MediaKind{
	"image/jpeg": catalog.MediaImage,
	"image/png":  catalog.MediaImage,
	"image/gif":  catalog.MediaImage,
	"image/webp": catalog.MediaImage,
	"video/mp4":  catalog.MediaVideo,
	"video/webm": catalog.MediaVideo,
}

// StoredFile describes a file written to disk.
type StoredFile struct {
	AbsPath      string
	URL          string
	OriginalName string
	MimeType     string
	Kind         catalog.MediaKind
	Size         int64
}

// DiskStorage writes uploads under baseDir/YYYY/MM/DD and serves them under staticBase.
type DiskStorage struct {
	baseDir    string
	staticBase string
	now        func() time.Time
}

func NewDiskStorage(baseDir, staticBase string) *DiskStorage {
	if baseDir == "" {
		baseDir = UploadsBaseDir
	}
	if staticBase == "" {
		staticBase = StaticURLBase
	}
	return &DiskStorage{baseDir: baseDir, staticBase: strings.TrimRight(staticBase, "/"), now: time.Now}
}

// Save sniffs the content type, then copies the file to disk.
func (s *DiskStorage) Save(fileHeader *multipart.FileHeader) (*StoredFile, error) {
	if fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fileHeader.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	mimeType := strings.Split(mtype.String(), ";")[0]
	kind, ok := allowedMimeTypes[mimeType]
	if !ok {
		return nil, ErrInvalidMimeType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	now := s.now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	// The extension follows the sniffed type so static serving never trusts the client name.
	filename := fmt.Sprintf("%s_%s%s", uuid.NewString(), sanitizeName(fileHeader.Filename), mtype.Extension())
	absPath := filepath.Join(absDir, filename)

	dst, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	written, err := io.Copy(dst, io.LimitReader(file, MaxFileSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if written > MaxFileSize {
		_ = os.Remove(absPath)
		return nil, ErrFileTooLarge
	}

	return &StoredFile{
		AbsPath:      absPath,
		URL:          s.staticBase + "/" + relDir + "/" + filename,
		OriginalName: filepath.Base(fileHeader.Filename),
		MimeType:     mimeType,
		Kind:         kind,
		Size:         written,
	}, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *DiskStorage) Remove(absPath string) error {
	if absPath == "" {
		return nil
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "." {
		return "file"
	}
	return name
}
