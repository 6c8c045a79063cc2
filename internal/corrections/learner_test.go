package corrections

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearner_RecordAndFindExact(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(nil)

	require.NoError(t, l.Record(ctx, "Docs/Misc", "Work/Finance", "invoice.pdf"))

	rec := l.FindApplicable("invoice.pdf")
	require.NotNil(t, rec)
	assert.Equal(t, "Work/Finance", rec.UserChosen)
	assert.Equal(t, "Docs/Misc", rec.AISuggested)
}

func TestLearner_EqualPathsAreNoOp(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(nil)

	require.NoError(t, l.Record(ctx, "Work/Finance", "Work/Finance", "invoice.pdf"))
	assert.Nil(t, l.FindApplicable("invoice.pdf"))
	assert.Empty(t, l.Records())
}

func TestLearner_NormalizesSlashesBeforeComparing(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(nil)

	// Same path modulo surrounding slashes: still a no-op.
	require.NoError(t, l.Record(ctx, "/Work/Finance/", "Work/Finance", "invoice.pdf"))
	assert.Empty(t, l.Records())
}

func TestLearner_FuzzyMatch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		recorded  string
		candidate string
		wantMatch bool
	}{
		{
			name:      "same prefix and extension with numeric suffix",
			recorded:  "report_2023.pdf",
			candidate: "report_2024.pdf",
			wantMatch: true,
		},
		{
			name:      "hyphen-delimited suffix",
			recorded:  "invoice-jan.pdf",
			candidate: "invoice-feb.pdf",
			wantMatch: true,
		},
		{
			name:      "different extension never matches",
			recorded:  "report_2023.pdf",
			candidate: "report_2024.docx",
			wantMatch: false,
		},
		{
			name:      "different prefix never matches",
			recorded:  "report_2023.pdf",
			candidate: "summary_2023.pdf",
			wantMatch: false,
		},
		{
			name:      "short prefix rejected",
			recorded:  "a_1.pdf",
			candidate: "a_2.pdf",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLearner(nil)
			require.NoError(t, l.Record(ctx, "Docs/Misc", "Work/Finance", tt.recorded))

			rec := l.FindApplicable(tt.candidate)
			if tt.wantMatch {
				require.NotNil(t, rec)
				assert.Equal(t, "Work/Finance", rec.UserChosen)
			} else {
				assert.Nil(t, rec)
			}
		})
	}
}

func TestLearner_NewestCorrectionWins(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(nil)

	require.NoError(t, l.Record(ctx, "Docs/Misc", "Work/Finance", "report_1.pdf"))
	require.NoError(t, l.Record(ctx, "Docs/Misc", "Archive/Old", "report_2.pdf"))

	// Both records share prefix "report" and extension; the newer wins.
	rec := l.FindApplicable("report_3.pdf")
	require.NotNil(t, rec)
	assert.Equal(t, "Archive/Old", rec.UserChosen)
}

func TestLearner_ExactBeatsFuzzy(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(nil)

	require.NoError(t, l.Record(ctx, "Docs/Misc", "Work/Finance", "report_1.pdf"))
	require.NoError(t, l.Record(ctx, "Docs/Misc", "Archive/Old", "report_2.pdf"))

	rec := l.FindApplicable("report_1.pdf")
	require.NotNil(t, rec)
	assert.Equal(t, "Work/Finance", rec.UserChosen)
}

func TestLearner_CapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(nil)

	for i := 0; i < maxRecords+10; i++ {
		name := fmt.Sprintf("file%c.txt", 'a'+rune(i%26))
		require.NoError(t, l.Record(ctx, "Old/Path", fmt.Sprintf("New/Path%d", i), name))
	}

	assert.Len(t, l.Records(), maxRecords)
	// The earliest 10 entries are gone.
	assert.Equal(t, "New/Path10", l.Records()[0].UserChosen)
}
