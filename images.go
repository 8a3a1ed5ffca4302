package devnotes

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

type uploadResponse struct {
	URL string `json:"url"`
}

// handleImageUpload accepts a multipart image, downscales it if needed, and
// stores it as a JPEG under the uploads dir. The store never sees the bytes;
// the caller gets back an opaque URL to put on a post.
func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: no image file provided", ErrInvalid)
	}
	if file.Size > maxUploadSize {
		return fmt.Errorf("%w: file too large (max 10MB)", ErrInvalid)
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	filename, data, err := processImage(src, file.Filename)
	if err != nil {
		return fmt.Errorf("%w: invalid image: %v", ErrInvalid, err)
	}

	if err := os.MkdirAll(a.Config.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	filename = uniqueFilename(a.Config.UploadsDir, filename)
	if err := os.WriteFile(filepath.Join(a.Config.UploadsDir, filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	return c.JSON(http.StatusOK, uploadResponse{
		URL: BuildURL(a.Config.URL, "uploads", filename),
	})
}

// processImage decodes an image, resizes it to maxImageWidth if wider, and
// encodes it as JPEG. Returns the slugified filename and the encoded bytes.
func processImage(src io.Reader, originalName string) (string, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", nil, fmt.Errorf("encode jpeg: %w", err)
	}

	ext := filepath.Ext(originalName)
	base := Slugify(strings.TrimSuffix(originalName, ext))
	if base == "" {
		base = "image"
	}
	return base + ".jpg", buf.Bytes(), nil
}

// uniqueFilename appends a counter if the filename already exists in dir.
func uniqueFilename(dir, filename string) string {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	counter := 1
	for {
		if _, err := os.Stat(filepath.Join(dir, candidate)); err != nil {
			return candidate
		}
		counter++
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}
