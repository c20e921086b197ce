package normalisers

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// maxPartSize bounds the bytes read from one archive member.
const maxPartSize = 64 << 20

// OpenZip opens an Office Open XML package.
func OpenZip(content []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %w", domain.ErrInvalidInput, err)
	}
	return reader, nil
}

// ReadPart returns the bytes of one archive member, or nil if it is absent.
func ReadPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
		}
		return data, nil
	}
	return nil, nil
}

// CoreTitle reads dc:title from docProps/core.xml.
func CoreTitle(reader *zip.Reader) string {
	data, err := ReadPart(reader, "docProps/core.xml")
	if err != nil || data == nil {
		return ""
	}
	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// MediaImages base64-encodes the raster images stored under dir
// (e.g. "word/media/"), in archive name order.
func MediaImages(reader *zip.Reader, dir string) []string {
	var names []string
	for _, file := range reader.File {
		if !strings.HasPrefix(file.Name, dir) {
			continue
		}
		switch strings.ToLower(path.Ext(file.Name)) {
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			names = append(names, file.Name)
		}
	}
	sort.Strings(names)

	images := make([]string, 0, len(names))
	for _, name := range names {
		data, err := ReadPart(reader, name)
		if err != nil || len(data) == 0 {
			continue
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}
	return images
}
