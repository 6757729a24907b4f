package sheet

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	header := []string{"Página", "tipo", "preco"}
	rows := [][]string{
		{"1", "1", "129.90"},
		{"", "", ""},
		{"2", "4"},
	}
	require.NoError(t, Encode(&buf, "Plan1", header, rows))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan1"}, f.GetSheetList())
	require.NoError(t, f.Close())

	table, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, header, table.Header)
	require.Len(t, table.Rows, 2, "blank rows are skipped")

	assert.Equal(t, "1", table.Rows[0].Get("pagina"))
	assert.Equal(t, "129.90", table.Rows[0].Get("price", "preço"))
	assert.Equal(t, "2", table.Rows[1].Get("PAGINA"))
	assert.Equal(t, "", table.Rows[1].Get("preco"), "short rows are padded")
	assert.Len(t, table.Rows[1].Values(), 3)
}

func TestDecode_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Template(&buf, "modelo", []string{"descricao", "ncm"}))

	table, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"descricao", "ncm"}, table.Header)
	assert.Empty(t, table.Rows)
	assert.True(t, table.Has("NCM"))
	assert.False(t, table.Has("cest"))
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.xlsx")
	require.NoError(t, Write(path, "Plan1", []string{"situação", "ean"}, [][]string{{"ACTIVE", "7890000000001"}}))

	table, err := Read(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ACTIVE", table.Rows[0].Get("situacao"))
	assert.Equal(t, "7890000000001", table.Rows[0].Get("ean"))
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}

func TestNormalizeExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "out", want: "out.xlsx"},
		{path: "out.xlsx", want: "out.xlsx"},
		{path: "OUT.XLSX", want: "OUT.XLSX"},
		{path: "report.xls", want: "report.xls.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeExt(tt.path, Extension))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "observacao", Key("Observação"))
	assert.Equal(t, "linkimagem", Key("linkImagem"))
	assert.Equal(t, "imagelink", Key("image_link"))
	assert.Equal(t, "pesoliquido", Key(" Peso Líquido "))
}

func TestNewRecord(t *testing.T) {
	r := NewRecord([]string{"a", "b"}, []string{" x ", "y", "ignored"})
	assert.Equal(t, []string{"x", "y"}, r.Values())
	assert.Equal(t, "y", r.Get("B"))
	assert.Equal(t, "", r.Get("c"))
}
