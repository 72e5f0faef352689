package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/storage"
	"golang.org/x/image/draw"
)

const (
	MaxAttachmentSize = 10 << 20
	MaxAvatarSize     = 5 << 20

	avatarMaxDimension = 512
	avatarQuality      = 85
)

var (
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedFileType = errors.New("file type is not allowed")
)

var attachmentExts = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".zip":  "application/zip",
}

// StoredFile describes an uploaded attachment.
type StoredFile struct {
	Path        string
	FileName    string
	ContentType string
	Size        int64
}

type FileService interface {
	// UploadAvatar decodes the image, downscales it and stores it as JPEG. Returns the stored path.
	UploadAvatar(ctx context.Context, userID string, file io.Reader, filename string) (string, error)
	UploadTaskAttachment(ctx context.Context, projectID, taskID string, file io.Reader, filename string) (StoredFile, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, path string) error
	URL(path string) string
}

type FileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) *FileServiceImpl {
	return &FileServiceImpl{storage: storage}
}

func (s *FileServiceImpl) UploadAvatar(ctx context.Context, userID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", user.ErrUnsupportedAvatarType
	}

	buffer, err := readLimited(file, MaxAvatarSize)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return "", user.ErrAvatarTooLarge
		}
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return "", user.ErrUnsupportedAvatarType
	}

	out := new(bytes.Buffer)
	if err := jpeg.Encode(out, downscale(img, avatarMaxDimension), &jpeg.Options{Quality: avatarQuality}); err != nil {
		return "", fmt.Errorf("encode avatar: %w", err)
	}

	key := path.Join("avatars", userID, uuid.NewString()+".jpg")
	stored, err := s.storage.Upload(ctx, out, key)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return stored, nil
}

func (s *FileServiceImpl) UploadTaskAttachment(ctx context.Context, projectID, taskID string, file io.Reader, filename string) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := attachmentExts[ext]
	if !ok {
		return StoredFile{}, ErrUnsupportedFileType
	}

	buffer, err := readLimited(file, MaxAttachmentSize)
	if err != nil {
		return StoredFile{}, err
	}

	key := path.Join("attachments", projectID, taskID, uuid.NewString()+ext)
	stored, err := s.storage.Upload(ctx, bytes.NewReader(buffer), key)
	if err != nil {
		return StoredFile{}, fmt.Errorf("upload attachment: %w", err)
	}

	return StoredFile{
		Path:        stored,
		FileName:    filepath.Base(filename),
		ContentType: contentType,
		Size:        int64(len(buffer)),
	}, nil
}

func (s *FileServiceImpl) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.storage.Download(ctx, path)
}

func (s *FileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

func (s *FileServiceImpl) URL(path string) string {
	return s.storage.URL(path)
}

// readLimited reads at most limit bytes and fails with ErrFileTooLarge beyond that.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	buffer, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buffer)) > limit {
		return nil, ErrFileTooLarge
	}
	return buffer, nil
}

// downscale fits img inside a box x box square keeping its aspect ratio. Smaller images are returned as is.
func downscale(img image.Image, box int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= box && h <= box {
		return img
	}

	newW, newH := box, box
	if w > h {
		newH = h * box / w
	} else {
		newW = w * box / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
