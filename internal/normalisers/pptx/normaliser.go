// Package pptx provides a Normaliser for PowerPoint presentations.
// Each slide becomes one text chunk; embedded pictures become images.
package pptx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the PowerPoint presentation MIME type.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const slidePrefix = "ppt/slides/slide"

// Normaliser handles PPTX documents.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts slide text, in slide order, and media images.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := normalisers.OpenZip(raw.Content)
	if err != nil {
		return nil, err
	}

	slides := slideNames(reader.File)
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slides", domain.ErrInvalidInput)
	}

	chunks := make([]string, 0, len(slides))
	for _, name := range slides {
		data, err := normalisers.ReadPart(reader, name)
		if err != nil {
			return nil, err
		}
		text, err := slideText(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, err)
		}
		if text != "" {
			chunks = append(chunks, text)
		}
	}

	title := normalisers.CoreTitle(reader)
	if title == "" {
		title = normalisers.Title(raw)
	}

	return &driven.NormaliseResult{
		Title:  title,
		Chunks: chunks,
		Images: normalisers.MediaImages(reader, "ppt/media/"),
	}, nil
}

// slideNames returns ppt/slides/slideN.xml members ordered by N.
func slideNames(files []*zip.File) []string {
	type slide struct {
		name string
		num  int
	}
	var slides []slide
	for _, f := range files {
		if !strings.HasPrefix(f.Name, slidePrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, slidePrefix), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{name: f.Name, num: num})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

// slideText joins the text runs of each paragraph (a:p/a:r/a:t), one
// paragraph per line.
func slideText(data []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	var (
		lines   []string
		current strings.Builder
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(current.String()); line != "" {
					lines = append(lines, line)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
