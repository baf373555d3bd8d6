package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentParser = (*Parser)(nil)
}

func TestParserMetadata(t *testing.T) {
	p := New()
	assert.Equal(t, "plaintext", p.Name())
	assert.Equal(t, 5, p.Priority())
	assert.Contains(t, p.SupportedExtensions(), ".txt")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantPages []string
	}{
		{
			name:      "single page",
			content:   "1 INTRODUCTION\nText",
			wantPages: []string{"1 INTRODUCTION\nText"},
		},
		{
			name:      "form feed pages",
			content:   "page one\fpage two\fpage three",
			wantPages: []string{"page one", "page two", "page three"},
		},
		{
			name:      "trailing form feed dropped",
			content:   "page one\fpage two\f",
			wantPages: []string{"page one", "page two"},
		},
		{
			name:      "crlf normalised",
			content:   "a\r\nb",
			wantPages: []string{"a\nb"},
		},
		{
			name:      "empty document",
			content:   "",
			wantPages: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := New().Parse(context.Background(), "/tmp/doc.txt", []byte(tt.content))
			require.NoError(t, err)
			require.Len(t, doc.Pages, len(tt.wantPages))
			for i, want := range tt.wantPages {
				assert.Equal(t, i+1, doc.Pages[i].Number)
				assert.Equal(t, want, doc.Pages[i].Text)
				assert.Nil(t, doc.Pages[i].Tables)
			}
			assert.Empty(t, doc.Outline)
		})
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	_, err := New().Parse(context.Background(), "/tmp/doc.txt", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
	assert.ErrorIs(t, err, domain.ErrParseFailure)
}
