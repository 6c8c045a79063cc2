package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Analysis
		wantErr bool
	}{
		{
			name: "plain object",
			raw:  `{"category": "Work/Finance", "summary": "Invoice", "tags": ["pdf"], "confidence": 0.9}`,
			want: Analysis{Category: "Work/Finance", Summary: "Invoice", Tags: []string{"pdf"}, Confidence: 0.9},
		},
		{
			name: "code-fenced JSON",
			raw:  "```json\n{\"category\": \"Work/Finance\", \"confidence\": 0.8}\n```",
			want: Analysis{Category: "Work/Finance", Confidence: 0.8},
		},
		{
			name: "stray array wrapping",
			raw:  `[{"category": "Media/Photos", "confidence": 0.7}]`,
			want: Analysis{Category: "Media/Photos", Confidence: 0.7},
		},
		{
			name: "classification field variant",
			raw:  `{"classification": "Docs/Legal", "description": "Contract"}`,
			want: Analysis{Category: "Docs/Legal", Summary: "Contract"},
		},
		{
			name: "targetPath field variant",
			raw:  `{"targetPath": "Docs/Legal"}`,
			want: Analysis{Category: "Docs/Legal"},
		},
		{
			name: "string confidence",
			raw:  `{"category": "X", "confidence": "0.85"}`,
			want: Analysis{Category: "X", Confidence: 0.85},
		},
		{
			name: "percentage confidence clamped to unit range",
			raw:  `{"category": "X", "confidence": 85}`,
			want: Analysis{Category: "X", Confidence: 0.85},
		},
		{
			name: "percent string confidence",
			raw:  `{"category": "X", "confidence": "85%"}`,
			want: Analysis{Category: "X", Confidence: 0.85},
		},
		{
			name: "negative confidence floors at zero",
			raw:  `{"category": "X", "confidence": -2}`,
			want: Analysis{Category: "X", Confidence: 0},
		},
		{
			name: "prose before the JSON",
			raw:  "Sure! Here is the classification:\n{\"category\": \"X\"}",
			want: Analysis{Category: "X"},
		},
		{
			name:    "missing category fails",
			raw:     `{"summary": "no idea"}`,
			wantErr: true,
		},
		{
			name:    "not JSON at all",
			raw:     `the file is probably a report`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAnalysis([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeManifest(t *testing.T) {
	raw := `[
		{"id": "f1", "action": "direct", "category": "Work/Finance", "summary": "Invoice", "confidence": 0.92},
		{"id": "f2", "action": "need_info", "requestType": "text_preview"},
		{"id": "f3", "action": "need_info", "requestType": "image_vision"}
	]`

	decisions, err := NormalizeManifest([]byte(raw))
	require.NoError(t, err)
	require.Len(t, decisions, 3)

	assert.Equal(t, DecisionDirect, decisions[0].Kind)
	require.NotNil(t, decisions[0].Analysis)
	assert.Equal(t, "Work/Finance", decisions[0].Analysis.Category)

	assert.Equal(t, DecisionNeedInfo, decisions[1].Kind)
	assert.Equal(t, RequestTextPreview, decisions[1].RequestType)

	assert.Equal(t, RequestImageVision, decisions[2].RequestType)
}

func TestNormalizeManifest_ObjectWrapping(t *testing.T) {
	raw := `{"files": [{"fileId": "f1", "category": "Docs"}]}`

	decisions, err := NormalizeManifest([]byte(raw))
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "f1", decisions[0].FileID)
	// No action field, but a category is present: treated as direct.
	assert.Equal(t, DecisionDirect, decisions[0].Kind)
}

func TestNormalizeManifest_CodeFenced(t *testing.T) {
	raw := "```json\n[{\"id\": \"f1\", \"action\": \"needs_more_info\", \"requestType\": \"pdf\"}]\n```"

	decisions, err := NormalizeManifest([]byte(raw))
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, DecisionNeedInfo, decisions[0].Kind)
	assert.Equal(t, RequestPDFDocument, decisions[0].RequestType)
}

func TestNormalizeManifest_SkipsMalformedEntries(t *testing.T) {
	raw := `[{"id": "f1", "category": "Docs"}, "garbage", {"noid": true}]`

	decisions, err := NormalizeManifest([]byte(raw))
	require.NoError(t, err)
	assert.Len(t, decisions, 1)
}

func TestNormalizeManifest_Empty(t *testing.T) {
	_, err := NormalizeManifest([]byte(`[]`))
	assert.Error(t, err)

	_, err = NormalizeManifest([]byte(`{"unrelated": 1}`))
	assert.Error(t, err)
}

func TestNormalizeRequestType(t *testing.T) {
	assert.Equal(t, RequestImageVision, normalizeRequestType("vision"))
	assert.Equal(t, RequestImageVision, normalizeRequestType("IMAGE_VISION"))
	assert.Equal(t, RequestPDFDocument, normalizeRequestType("pdf"))
	assert.Equal(t, RequestFullText, normalizeRequestType("full_text"))
	// Unknown types degrade to the cheapest request.
	assert.Equal(t, RequestTextPreview, normalizeRequestType("hologram"))
}
