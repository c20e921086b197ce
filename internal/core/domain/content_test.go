package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModality_IsValid(t *testing.T) {
	assert.True(t, ModalityText.IsValid())
	assert.True(t, ModalityTable.IsValid())
	assert.True(t, ModalityImage.IsValid())
	assert.False(t, Modality("audio").IsValid())
}

func TestContent_Modality(t *testing.T) {
	var c Content = TextContent{Text: "hello"}
	assert.Equal(t, ModalityText, c.Modality())

	c = TableContent{Table: Table{Columns: []string{"a"}}}
	assert.Equal(t, ModalityTable, c.Modality())

	c = ImageContent{Data: "abc", Format: "png"}
	assert.Equal(t, ModalityImage, c.Modality())
}

func TestTableFromRecords(t *testing.T) {
	records := []map[string]any{
		{"quarter": "Q3", "revenue": float64(1200)},
		{"quarter": "Q4", "revenue": 1500.5, "note": "est"},
	}

	table := TableFromRecords(records)

	assert.Equal(t, []string{"note", "quarter", "revenue"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"", "Q3", "1200"}, table.Rows[0])
	assert.Equal(t, []string{"est", "Q4", "1500.5"}, table.Rows[1])
}

func TestEncodeDecodeRaw_String(t *testing.T) {
	data, err := EncodeRaw("revenue grew 12%")
	require.NoError(t, err)
	assert.Equal(t, `"revenue grew 12%"`, string(data))

	raw, err := DecodeRaw(data)
	require.NoError(t, err)
	assert.Equal(t, "revenue grew 12%", raw)
}

func TestEncodeDecodeRaw_TableStaysStructured(t *testing.T) {
	table := Table{Columns: []string{"quarter", "revenue"}, Rows: [][]string{{"Q3", "1200"}}}

	data, err := EncodeRaw(table)
	require.NoError(t, err)

	raw, err := DecodeRaw(data)
	require.NoError(t, err)
	assert.Equal(t, table, raw)
}

func TestEncodeRaw_Records(t *testing.T) {
	data, err := EncodeRaw([]map[string]any{{"a": "1"}})
	require.NoError(t, err)

	raw, err := DecodeRaw(data)
	require.NoError(t, err)
	assert.Equal(t, Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}, raw)
}

func TestDecodeRaw_RecordsArray(t *testing.T) {
	raw, err := DecodeRaw([]byte(`[{"x":1},{"x":2}]`))
	require.NoError(t, err)
	assert.Equal(t, Table{Columns: []string{"x"}, Rows: [][]string{{"1"}, {"2"}}}, raw)
}

func TestEncodeRaw_Unsupported(t *testing.T) {
	_, err := EncodeRaw(42)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var nilTable *Table
	_, err = EncodeRaw(nilTable)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeRaw_Invalid(t *testing.T) {
	_, err := DecodeRaw([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DecodeRaw([]byte(`42`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	for _, data := range []string{`{"columns":null,"rows":[[]]}`, `[{}]`, `[]`} {
		_, err = DecodeRaw([]byte(data))
		assert.ErrorIs(t, err, ErrInvalidInput, data)
	}
}

func TestEncodeRaw_RejectsTablesWithoutColumns(t *testing.T) {
	for name, raw := range map[string]any{
		"records of empty objects": []map[string]any{{}},
		"no records":               []map[string]any{},
		"zero table":               Table{},
		"ragged row":               Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}},
		"from empty records":       TableFromRecords([]map[string]any{{}}),
	} {
		_, err := EncodeRaw(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestEntryMetadata(t *testing.T) {
	page := 3
	meta := EntryMetadata("c-1", Metadata{
		SourceDocumentID: "doc-1",
		TenantIndexName:  "chan-42",
		PageNumber:       &page,
		Modality:         ModalityTable,
	})

	assert.Equal(t, map[string]string{
		MetaContentID:        "c-1",
		MetaSourceDocumentID: "doc-1",
		MetaModality:         "table",
		MetaPageNumber:       "3",
	}, meta)
}
