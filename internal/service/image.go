package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

const (
	// MaxImageBytes bounds the decoded size of an uploaded picture.
	MaxImageBytes = 10 << 20
	// MaxImageWidth is the width recipe pictures are scaled down to.
	MaxImageWidth = 1280
	// MaxImageSide and MaxImagePixels bound the decoded bitmap, which a small
	// compressed payload can inflate far beyond MaxImageBytes.
	MaxImageSide   = 10000
	MaxImagePixels = 40_000_000

	imageKeyPrefix = "recipes/images"
)

var errInvalidImage = errors.New("invalid image")

// ImageStore persists encoded recipe pictures and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// ProcessedImage is a decoded, resized and re-encoded upload.
type ProcessedImage struct {
	Data        []byte
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// DecodeDataURI parses a "data:image/<type>;base64,<payload>" string, shrinks the
// picture to MaxImageWidth and re-encodes it in its original format.
func DecodeDataURI(dataURI string) (*ProcessedImage, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(dataURI), ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", errInvalidImage)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image is larger than %d bytes", errInvalidImage, MaxImageBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidImage, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidImage, err)
	}
	if cfg.Width > MaxImageSide || cfg.Height > MaxImageSide || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds the pixel limit", errInvalidImage, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidImage, err)
	}

	format, ext, contentType := outputFormat(header)
	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &ProcessedImage{
		Data:        buf.Bytes(),
		Ext:         ext,
		ContentType: contentType,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}, nil
}

// outputFormat keeps png and gif uploads lossless and turns everything else into jpeg.
func outputFormat(header string) (imaging.Format, string, string) {
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	switch mime {
	case "image/png":
		return imaging.PNG, ".png", mime
	case "image/gif":
		return imaging.GIF, ".gif", mime
	default:
		return imaging.JPEG, ".jpg", "image/jpeg"
	}
}

// ImageService validates uploads and hands them to the configured store.
type ImageService struct {
	store ImageStore
}

func NewImageService(store ImageStore) *ImageService {
	return &ImageService{store: store}
}

// Store decodes dataURI and saves it under a random name.
func (s *ImageService) Store(ctx context.Context, dataURI string) (string, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		if errors.Is(err, errInvalidImage) {
			return "", fieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}
		return "", err
	}

	name := uuid.NewString() + img.Ext
	url, err := s.store.Save(ctx, name, img.ContentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	logging.Debug().Str("url", url).Int("width", img.Width).Int("height", img.Height).Msg("recipe image stored")
	return url, nil
}

// Remove deletes a stored image, logging failures.
func (s *ImageService) Remove(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.store.Delete(ctx, url); err != nil {
		logging.Warn().Err(err).Str("url", url).Msg("failed to delete recipe image")
	}
}

// S3ImageStore keeps pictures in an S3 bucket.
type S3ImageStore struct {
	s3 *config.S3Config
}

func NewS3ImageStore(s3 *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3: s3}
}

func (s *S3ImageStore) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	return s.s3.PutObject(ctx, path.Join(imageKeyPrefix, name), contentType, data)
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	prefix := s.s3.ObjectURL("")
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	return s.s3.DeleteObject(ctx, strings.TrimPrefix(url, prefix))
}

// LocalImageStore writes pictures below dir and serves them from baseURL.
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalImageStore) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	target := filepath.Join(s.dir, filepath.FromSlash(imageKeyPrefix))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(target, filepath.Base(name)), data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/" + path.Join(imageKeyPrefix, filepath.Base(name)), nil
}

func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	prefix := s.baseURL + "/" + imageKeyPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, prefix))
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(imageKeyPrefix), name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
