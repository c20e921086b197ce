package docx

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX file in memory from name/content pairs.
func createTestDOCX(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Revenue grew </w:t></w:r><w:r><w:t>in Q3.</w:t></w:r></w:p>
<w:p></w:p>
<w:tbl>
  <w:tr>
    <w:tc><w:p><w:r><w:t>quarter</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>revenue</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Q3</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>120</w:t></w:r></w:p></w:tc>
  </w:tr>
</w:tbl>
<w:p><w:r><w:t>Costs were flat.</w:t></w:r></w:p>
</w:body>
</w:document>`

const coreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Quarterly Report</dc:title>
</cp:coreProperties>`

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Success(t *testing.T) {
	content := createTestDOCX(t, map[string]string{
		"word/document.xml":     testDocumentXML,
		"docProps/core.xml":     coreXML,
		"word/media/image1.png": "png-bytes",
		"word/media/notes.xml":  "<x/>",
	})

	result, err := New().Normalise(t.Context(), &domain.RawDocument{URI: "report.docx", Content: content})
	require.NoError(t, err)

	assert.Equal(t, "Quarterly Report", result.Title)
	assert.Equal(t, "Revenue grew in Q3.\nCosts were flat.", result.Text)

	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"quarter", "revenue"}, result.Tables[0].Columns)
	assert.Equal(t, [][]string{{"Q3", "120"}}, result.Tables[0].Rows)

	require.Len(t, result.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), result.Images[0])
}

func TestNormalise_TitleFallback(t *testing.T) {
	content := createTestDOCX(t, map[string]string{"word/document.xml": testDocumentXML})

	result, err := New().Normalise(t.Context(), &domain.RawDocument{URI: "/x/board_minutes.docx", Content: content})
	require.NoError(t, err)
	assert.Equal(t, "board minutes", result.Title)
	assert.Empty(t, result.Images)
}

func TestNormalise_Invalid(t *testing.T) {
	n := New()

	_, err := n.Normalise(t.Context(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = n.Normalise(t.Context(), &domain.RawDocument{Content: []byte("not a zip")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missingBody := createTestDOCX(t, map[string]string{"docProps/core.xml": coreXML})
	_, err = n.Normalise(t.Context(), &domain.RawDocument{Content: missingBody})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	badXML := createTestDOCX(t, map[string]string{"word/document.xml": "<w:document><w:body>"})
	_, err = n.Normalise(t.Context(), &domain.RawDocument{Content: badXML})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
