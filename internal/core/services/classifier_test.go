package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		text      string
		wantType  string
		wantYear  int
		wantTitle string
	}{
		{
			name:      "guideline from filename",
			filename:  "2021-ESC-Guidelines-valvular-heart-disease.pdf",
			wantType:  DocTypeGuideline,
			wantYear:  2021,
			wantTitle: "2021 ESC Guidelines valvular heart disease",
		},
		{
			name:     "focused update beats guideline",
			filename: "2023_focused_update_heart_failure_guidelines.pdf",
			wantType: DocTypeFocusedUpdate,
			wantYear: 2023,
		},
		{
			name:     "slides detected between underscores",
			filename: "ESC_slides_2022_ventricular.pdf",
			wantType: DocTypeSlideDeck,
			wantYear: 2022,
		},
		{
			name:     "pocket guideline",
			filename: "ESC Pocket Guidelines AF 2020.pdf",
			wantType: DocTypePocketGuideline,
			wantYear: 2020,
		},
		{
			name:      "type and year from text when filename is opaque",
			filename:  "ehab368.pdf",
			text:      "2021 ESC/EACTS Guidelines for the management of valvular heart disease\nDeveloped by the Task Force",
			wantType:  DocTypeGuideline,
			wantYear:  2021,
			wantTitle: "2021 ESC/EACTS Guidelines for the management of valvular heart disease",
		},
		{
			name:     "consensus statement",
			filename: "expert consensus statement on cardiac amyloidosis 2019.md",
			wantType: DocTypeConsensusStatement,
			wantYear: 2019,
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.filename, tt.text)

			require.NotNil(t, got.DocumentType)
			assert.Equal(t, tt.wantType, *got.DocumentType)
			require.NotNil(t, got.DocumentYear)
			assert.Equal(t, tt.wantYear, *got.DocumentYear)
			if tt.wantTitle != "" {
				assert.Equal(t, tt.wantTitle, got.Title)
			}
			assert.False(t, got.Uncertain())
			assert.Empty(t, UncertainNote(got))
		})
	}
}

func TestClassifier_NoMatchLeavesFieldsUnset(t *testing.T) {
	got := NewClassifier().Classify("ehab368.pdf", "12\n\nAbstract")

	assert.Nil(t, got.DocumentType)
	assert.Nil(t, got.DocumentYear)
	assert.Equal(t, "ehab368", got.Title)
	assert.True(t, got.Uncertain())
	assert.Contains(t, UncertainNote(got), "type and year")
}

func TestClassifier_IgnoresLongNumbers(t *testing.T) {
	got := NewClassifier().Classify("doi-10.1093-eurheartj-ehab20215.pdf", "")
	assert.Nil(t, got.DocumentYear)
}

func TestTruncateUTF8(t *testing.T) {
	s := "ééé" // 6 bytes
	assert.Equal(t, "é", truncateUTF8(s, 3))
	assert.Equal(t, s, truncateUTF8(s, 10))
}
