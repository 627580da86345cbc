// Package attachment provides named binary files which can be attached to webhook messages.
package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultImageName   = "image.jpg"
	DefaultZipName     = "files.zip"
	defaultJPEGQuality = 75
	readConcurrency    = 4
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIO              = errors.New("io error")
)

// zipModified is the modification time of all zip entries.
// A fixed time keeps archives reproducible.
var zipModified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Attachment is a named binary file.
type Attachment struct {
	Name string
	Data []byte
}

// IsValid reports whether the attachment has any data.
func (a Attachment) IsValid() bool {
	return len(a.Data) > 0
}

func (a Attachment) String() string {
	return fmt.Sprintf("%s (%d bytes)", a.Name, len(a.Data))
}

// FromBytes returns a new attachment. Empty data is not allowed.
func FromBytes(name string, data []byte) (Attachment, error) {
	if len(data) == 0 {
		return Attachment{}, fmt.Errorf("attachment %s has no data: %w", name, ErrInvalidArgument)
	}
	return Attachment{Name: name, Data: data}, nil
}

// FromPath returns a new attachment with the content of a file.
// The name of the attachment is the base name of the path.
//
// The file is opened read-only without any locks,
// so it can be read while other processes are still writing to it, e.g. log files.
func FromPath(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("read attachment %s: %w: %w", path, ErrIO, err)
	}
	return Attachment{Name: filepath.Base(path), Data: data}, nil
}

// FromPaths reads several files concurrently and returns them in the same order.
func FromPaths(ctx context.Context, paths ...string) ([]Attachment, error) {
	aa := make([]Attachment, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := FromPath(p)
			if err != nil {
				return err
			}
			aa[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aa, nil
}

type imageOptions struct {
	name      string
	quality   int
	maxWidth  uint
	maxHeight uint
}

// ImageOption configures how an image is turned into an attachment.
type ImageOption func(*imageOptions)

// WithImageName sets the file name of an image attachment.
func WithImageName(name string) ImageOption {
	return func(o *imageOptions) {
		o.name = name
	}
}

// WithJPEGQuality sets the JPEG quality between 1 and 100.
func WithJPEGQuality(q int) ImageOption {
	return func(o *imageOptions) {
		o.quality = min(max(q, 1), 100)
	}
}

// WithMaxSize downscales images which are larger then the given dimensions.
// The aspect ratio is kept.
func WithMaxSize(width, height uint) ImageOption {
	return func(o *imageOptions) {
		o.maxWidth, o.maxHeight = width, height
	}
}

// FromImage returns a new attachment with an image encoded as JPEG.
func FromImage(img image.Image, opts ...ImageOption) (Attachment, error) {
	if img == nil {
		return Attachment{}, fmt.Errorf("image is nil: %w", ErrInvalidArgument)
	}
	b := img.Bounds()
	if b.Empty() {
		return Attachment{}, fmt.Errorf("image is empty: %w", ErrInvalidArgument)
	}
	o := imageOptions{name: DefaultImageName, quality: defaultJPEGQuality}
	for _, fn := range opts {
		fn(&o)
	}
	if o.maxWidth > 0 && o.maxHeight > 0 {
		img = resize.Thumbnail(o.maxWidth, o.maxHeight, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.quality}); err != nil {
		return Attachment{}, fmt.Errorf("encode image: %w", err)
	}
	return Attachment{Name: o.name, Data: buf.Bytes()}, nil
}

// ZipFileName returns a valid name for a zip archive.
func ZipFileName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultZipName
	}
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}
	return name
}

// CompressToZip returns a new attachment with a zip archive,
// which contains one entry for each attachment.
// Archives created from the same attachments are identical.
func CompressToZip(archiveName string, attachments ...Attachment) (Attachment, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, a := range attachments {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:     a.Name,
			Method:   zip.Deflate,
			Modified: zipModified,
		})
		if err != nil {
			return Attachment{}, fmt.Errorf("zip entry %s: %w", a.Name, err)
		}
		if _, err := f.Write(a.Data); err != nil {
			return Attachment{}, fmt.Errorf("zip entry %s: %w", a.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return Attachment{}, fmt.Errorf("zip archive %s: %w", archiveName, err)
	}
	return FromBytes(archiveName, buf.Bytes())
}
