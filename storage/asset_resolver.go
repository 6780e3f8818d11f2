package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// defaultUploadsDir is the directory, relative to the application root, that holds uploaded images.
const defaultUploadsDir = "uploads"

// ErrAssetUnavailable marks a referenced asset that is missing, outside the uploads
// directory or not a decodable image. Callers omit the asset; it is never a request failure.
var ErrAssetUnavailable = errors.New("storage: asset unavailable")

// Asset is a cover image read from disk and ready to embed in an export.
type Asset struct {
	Path   string
	Data   []byte
	Format string // "jpeg" or "png"
	Width  int    // pixels
	Height int    // pixels
}

// AssetResolver resolves stored image references such as "/uploads/cover-1.jpg".
type AssetResolver struct {
	appRoot    string
	uploadsDir string
}

// NewAssetResolver creates a resolver rooted at appRoot. References are joined to
// appRoot and must land inside appRoot/uploadsDir.
// If uploadsDir is empty, it defaults to defaultUploadsDir.
func NewAssetResolver(appRoot, uploadsDir string) *AssetResolver {
	if appRoot == "" {
		appRoot = "."
	}
	if uploadsDir == "" {
		uploadsDir = defaultUploadsDir
	}
	return &AssetResolver{appRoot: appRoot, uploadsDir: uploadsDir}
}

// LocalPath maps a stored reference to a filesystem path without touching the disk.
func (ar *AssetResolver) LocalPath(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrAssetUnavailable)
	}

	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(ref, "/")))
	full := filepath.Join(ar.appRoot, clean)

	uploadsRoot := filepath.Join(ar.appRoot, ar.uploadsDir)
	rel, err := filepath.Rel(uploadsRoot, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside the uploads directory", ErrAssetUnavailable, ref)
	}
	return full, nil
}

// Resolve reads and decodes the referenced image. Every failure wraps ErrAssetUnavailable.
// PNGs are re-encoded as 8-bit non-interlaced RGBA so every renderer can embed them.
func (ar *AssetResolver) Resolve(ref string) (*Asset, error) {
	fullPath, err := ar.LocalPath(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrAssetUnavailable, fullPath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrAssetUnavailable, fullPath)
	}

	switch format {
	case "jpeg":
	case "png":
		nrgba := image.NewNRGBA(bounds)
		draw.Draw(nrgba, bounds, img, bounds.Min, draw.Src)
		var buf bytes.Buffer
		if err := png.Encode(&buf, nrgba); err != nil {
			return nil, fmt.Errorf("%w: re-encode %s: %v", ErrAssetUnavailable, fullPath, err)
		}
		data = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: unsupported image format %q", ErrAssetUnavailable, format)
	}

	return &Asset{
		Path:   fullPath,
		Data:   data,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
