package loader

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)
	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestParseDOCX_ParagraphsInOrder(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + wordNS + `><w:body>
<w:p><w:r><w:t>ມາດຕາ 1</w:t></w:r><w:r><w:t xml:space="preserve"> ຈຸດປະສົງ</w:t></w:r></w:p>
<w:p><w:r><w:t>ກົດໝາຍສະບັບນີ້</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>ມາດຕາ 2</w:t><w:tab/><w:t>ຂອບເຂດ</w:t></w:r></w:p>
<w:p/>
</w:body></w:document>`

	paragraphs, err := ParseDOCX(docxBytes(t, xmlDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"ມາດຕາ 1 ຈຸດປະສົງ", "ກົດໝາຍສະບັບນີ້", "cell", "ມາດຕາ 2\tຂອບເຂດ", ""}, paragraphs)
}

func TestParseDOCX_Errors(t *testing.T) {
	_, err := ParseDOCX([]byte("not a zip"))
	assert.Error(t, err)

	_, err = ParseDOCX(docxBytes(t, ""))
	assert.ErrorIs(t, err, errNoDocumentPart)

	_, err = ParseDOCX(docxBytes(t, `<w:document `+wordNS+`><w:body><w:p>`))
	assert.Error(t, err)
}

func TestParseText(t *testing.T) {
	paragraphs, err := ParseText([]byte("\xef\xbb\xbfline one\r\nline two\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"line one", "line two", ""}, paragraphs)

	_, err = ParseText([]byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, errNotUTF8)
}

func TestRegistry_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Labour.DOCX", docxBytes(t, `<w:document `+wordNS+`><w:body>
<w:p><w:r><w:t>ມາດຕາ 1 ເບິ່ງ https://example.org ★</w:t></w:r></w:p>
<w:p><w:r><w:t>  </w:t></w:r></w:p>
<w:p><w:r><w:t>Page 1 of 3</w:t></w:r></w:p>
</w:body></w:document>`))

	doc, err := NewRegistry().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Labour.DOCX", doc.ID)
	assert.Equal(t, "docx", doc.Format)
	assert.Equal(t, []string{"ມາດຕາ 1 ເບິ່ງ"}, doc.Paragraphs)

	raw, err := NewRegistry(WithoutCleaning()).Load(path)
	require.NoError(t, err)
	assert.Len(t, raw.Paragraphs, 3)
}

func TestRegistry_LoadText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tax.md", []byte("Article 1: Income tax.\n\nArticle 2: Marriage."))

	doc, err := NewRegistry().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "md", doc.Format)
	assert.Equal(t, []string{"Article 1: Income tax.", "Article 2: Marriage."}, doc.Paragraphs)
}

func TestRegistry_Unsupported(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.png", []byte{0x89, 'P', 'N', 'G'})

	r := NewRegistry()
	assert.False(t, r.Supports(path))
	_, err := r.Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegistry_BrokenPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", []byte("%PDF-1.4 nothing else"))

	_, err := NewRegistry().Load(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}
