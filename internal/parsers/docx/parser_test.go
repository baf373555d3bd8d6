package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	if coreXML != "" {
		core, err := w.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = core.Write([]byte(coreXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
  <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>1 Introduction</w:t></w:r></w:p>
  <w:p><w:r><w:t xml:space="preserve">Heart failure is </w:t></w:r><w:r><w:t>common.</w:t></w:r></w:p>
  <w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>1.1 Scope</w:t></w:r></w:p>
  <w:tbl>
    <w:tr><w:tc><w:p><w:r><w:t>Class</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Recommendation</w:t></w:r></w:p></w:tc></w:tr>
    <w:tr><w:tc><w:p><w:r><w:t>I</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>SGLT2 inhibitors</w:t></w:r></w:p></w:tc></w:tr>
  </w:tbl>
  <w:p><w:r><w:t>After the table.</w:t></w:r></w:p>
</w:body>
</w:document>`

const testCoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>2023 Focused Update on Heart Failure</dc:title>
</cp:coreProperties>`

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentParser = (*Parser)(nil)
}

func TestParserMetadata(t *testing.T) {
	p := New()
	assert.Equal(t, "docx", p.Name())
	assert.Equal(t, 50, p.Priority())
	assert.Equal(t, []string{".docx"}, p.SupportedExtensions())
}

func TestParse_Success(t *testing.T) {
	content := createTestDOCX(t, documentXML, testCoreXML)

	doc, err := New().Parse(context.Background(), "hf.docx", content)
	require.NoError(t, err)

	assert.Equal(t, "2023 Focused Update on Heart Failure", doc.Metadata["title"])
	assert.Equal(t, []domain.OutlineNode{
		{Title: "1 Introduction", Level: 1, Page: 1},
		{Title: "1.1 Scope", Level: 2, Page: 1},
	}, doc.Outline)

	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t,
		"1 Introduction\nHeart failure is common.\n1.1 Scope\nClass  Recommendation\nI  SGLT2 inhibitors\nAfter the table.",
		page.Text)

	require.Len(t, page.Tables, 1)
	assert.Equal(t, [][]string{{"Class", "Recommendation"}, {"I", "SGLT2 inhibitors"}}, page.Tables[0].Rows)
	assert.Equal(t, 3, page.Tables[0].Region.FirstLine)
	assert.Equal(t, 4, page.Tables[0].Region.LastLine)
	assert.Equal(t, "Class  Recommendation", page.Tables[0].Anchor)
}

func TestParse_NoCoreXML(t *testing.T) {
	content := createTestDOCX(t, documentXML, "")

	doc, err := New().Parse(context.Background(), "hf.docx", content)
	require.NoError(t, err)
	assert.NotContains(t, doc.Metadata, "title")
}

func TestParse_InvalidZip(t *testing.T) {
	_, err := New().Parse(context.Background(), "bad.docx", []byte("not a zip"))
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
}

func TestParse_MissingDocumentXML(t *testing.T) {
	content := createTestDOCX(t, "", testCoreXML)

	_, err := New().Parse(context.Background(), "empty.docx", content)
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		level int
		ok    bool
	}{
		{"Heading1", 1, true},
		{"heading3", 3, true},
		{"Title", 1, true},
		{"Normal", 0, false},
		{"HeadingX", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			level, ok := headingLevel(tt.style)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.level, level)
		})
	}
}
