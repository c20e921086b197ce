package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Q3 &amp; Outlook</title><style>p { color: red }</style></head>
<body>
<script>alert("x")</script>
<h1>Results</h1>
<p>Revenue grew in Q3.</p>
<table>
  <tr><th>quarter</th><th>revenue</th></tr>
  <tr><td>Q3</td><td><b>120</b></td></tr>
  <tr><td>Q4</td></tr>
</table>
<p>Costs were&nbsp;flat.<br>See appendix.</p>
</body>
</html>`

func TestNormaliser_Normalise(t *testing.T) {
	result, err := New().Normalise(t.Context(), &domain.RawDocument{URI: "report.html", Content: []byte(page)})
	require.NoError(t, err)

	assert.Equal(t, "Q3 & Outlook", result.Title)
	assert.Equal(t, "Results\nRevenue grew in Q3.\nCosts were flat.\nSee appendix.", result.Text)

	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"quarter", "revenue"}, result.Tables[0].Columns)
	assert.Equal(t, [][]string{{"Q3", "120"}, {"Q4", ""}}, result.Tables[0].Rows)
}

func TestNormaliser_TitleFallback(t *testing.T) {
	result, err := New().Normalise(t.Context(), &domain.RawDocument{URI: "/x/team-page.html", Content: []byte("<p>hi</p>")})
	require.NoError(t, err)
	assert.Equal(t, "team page", result.Title)
	assert.Equal(t, "hi", result.Text)
	assert.Empty(t, result.Tables)
}

func TestExtractTables_EmptyTableDropped(t *testing.T) {
	body, tables := extractTables("a<table></table>b")
	assert.Empty(t, tables)
	assert.Equal(t, "a\nb", body)
}

func TestNormaliser_Nil(t *testing.T) {
	_, err := New().Normalise(t.Context(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
