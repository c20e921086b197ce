package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestNormalise(t *testing.T) {
	content := `{
		"name": "Q3 report",
		"texts": ["Revenue grew in Q3.", "  ", "Costs were flat."],
		"tables": [
			{"columns": ["quarter", "revenue"], "rows": [["Q3", "120"]]},
			[{"quarter": "Q4", "revenue": 130}]
		],
		"images": ["iVBORw0KGgo="]
	}`

	result, err := New().Normalise(t.Context(), &domain.RawDocument{Content: []byte(content)})
	require.NoError(t, err)

	assert.Equal(t, "Q3 report", result.Title)
	assert.Equal(t, []string{"Revenue grew in Q3.", "Costs were flat."}, result.Chunks)
	require.Len(t, result.Tables, 2)
	assert.Equal(t, [][]string{{"Q3", "120"}}, result.Tables[0].Rows)
	assert.Equal(t, []string{"quarter", "revenue"}, result.Tables[1].Columns)
	assert.Equal(t, [][]string{{"Q4", "130"}}, result.Tables[1].Rows)
	assert.Equal(t, []string{"iVBORw0KGgo="}, result.Images)
}

func TestNormalise_TitleFromURI(t *testing.T) {
	result, err := New().Normalise(t.Context(), &domain.RawDocument{URI: "/drop/board_pack.json", Content: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "board pack", result.Title)
}

func TestNormalise_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{`},
		{"table without columns", `{"tables": [{"rows": [["a"]]}]}`},
		{"ragged row", `{"tables": [{"columns": ["a", "b"], "rows": [["1"]]}]}`},
		{"bad records", `{"tables": [[1, 2]]}`},
		{"empty records", `{"tables": [[{}]]}`},
		{"no records", `{"tables": [[]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Normalise(t.Context(), &domain.RawDocument{Content: []byte(tt.content)})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
