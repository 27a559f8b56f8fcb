// Package imagedata converts captured images between raw bytes and data URLs.
package imagedata

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
)

var ErrNotImage = errors.New("unsupported image format")

// allowedTypes is the set of image formats the vision backends accept.
var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Image struct {
	MIMEType string
	Data     []byte
}

// Sniff returns the detected MIME type and true if data is an accepted image
// format, or ("", false) otherwise. The declared type of an upload is ignored.
func Sniff(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	detected := mimetype.Detect(data)
	for _, t := range allowedTypes {
		if detected.Is(t) {
			return t, true
		}
	}
	return "", false
}

// New validates data as an image and wraps it.
func New(data []byte) (*Image, error) {
	mimeType, ok := Sniff(data)
	if !ok {
		return nil, ErrNotImage
	}
	return &Image{MIMEType: mimeType, Data: data}, nil
}

// FromDataURL decodes a base64 or percent-encoded data URL and checks that the
// payload is an image.
func FromDataURL(s string) (*Image, error) {
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	img, err := New(du.Data)
	if err != nil {
		return nil, fmt.Errorf("data url with media type %q: %w", du.ContentType(), err)
	}
	return img, nil
}

// DataURL encodes the image as a base64 data URL.
func (i *Image) DataURL() string {
	return dataurl.New(i.Data, i.MIMEType).String()
}
