// Package corrections records user overrides of AI suggestions and
// replays them for similarly-named files.
package corrections

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/service"
)

// maxRecords caps the in-memory correction log. Oldest entries are
// evicted first.
const maxRecords = 100

// minPrefixLength guards the fuzzy filename match against short,
// generic prefixes like "a" or "img".
const minPrefixLength = 3

// Learner holds the capped correction log. A correction that applies
// bypasses the taxonomy resolver entirely: a human decision outranks
// any heuristic.
type Learner struct {
	store   service.CorrectionStore
	records []model.CorrectionRecord
}

// NewLearner creates an empty learner. store may be nil for
// session-only operation.
func NewLearner(store service.CorrectionStore) *Learner {
	return &Learner{store: store}
}

// Load replaces the in-memory log with the persisted one.
func (l *Learner) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	records, err := l.store.ListCorrections(ctx, maxRecords)
	if err != nil {
		return err
	}
	l.records = records
	return nil
}

// Record appends a correction. Equal paths are a no-op: the user
// accepted the suggestion, there is nothing to learn.
func (l *Learner) Record(ctx context.Context, aiSuggested, userChosen, fileName string) error {
	aiSuggested = model.NormalizePath(aiSuggested)
	userChosen = model.NormalizePath(userChosen)
	if aiSuggested == userChosen {
		return nil
	}

	rec := model.CorrectionRecord{
		AISuggested: aiSuggested,
		UserChosen:  userChosen,
		FileName:    fileName,
		Timestamp:   time.Now(),
	}

	l.records = append(l.records, rec)
	if len(l.records) > maxRecords {
		l.records = l.records[len(l.records)-maxRecords:]
	}

	slog.Debug("Recorded correction",
		"file", fileName,
		"from", aiSuggested,
		"to", userChosen)

	if l.store == nil {
		return nil
	}
	if err := l.store.SaveCorrection(ctx, rec); err != nil {
		return err
	}
	return l.store.PruneCorrections(ctx, maxRecords)
}

// FindApplicable returns the correction to replay for fileName, or nil.
// An exact filename match wins. The fuzzy pass requires an identical
// extension and an identical prefix (the part before the first run of
// digits, underscores, or hyphens) of at least minPrefixLength
// characters, and scans newest-first so the most recent correction wins.
func (l *Learner) FindApplicable(fileName string) *model.CorrectionRecord {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].FileName == fileName {
			rec := l.records[i]
			return &rec
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	prefix := namePrefix(fileName)
	if len(prefix) < minPrefixLength {
		return nil
	}

	for i := len(l.records) - 1; i >= 0; i-- {
		rec := l.records[i]
		if strings.ToLower(filepath.Ext(rec.FileName)) != ext {
			continue
		}
		if namePrefix(rec.FileName) == prefix {
			return &rec
		}
	}
	return nil
}

// Records returns a copy of the log in insertion order.
func (l *Learner) Records() []model.CorrectionRecord {
	return append([]model.CorrectionRecord(nil), l.records...)
}

// namePrefix returns the filename substring before the first run of
// digits, underscores, or hyphens, lowercased.
func namePrefix(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	for i, r := range base {
		if (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return strings.ToLower(base[:i])
		}
	}
	return strings.ToLower(base)
}
