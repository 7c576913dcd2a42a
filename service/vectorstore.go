package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"audio-diary/config"
	"audio-diary/dto"
	"audio-diary/repository"
)

const collectionName = "audio_diary"

// ErrIndexDisabled is returned by query operations when no embedding
// backend is configured.
var ErrIndexDisabled = errors.New("semantic index disabled: EMBEDDING_BASE_URL is not set")

// VectorIndex is the semantic search index over transcripts and summaries,
// keyed by rid. Re-indexing a rid overwrites the prior entry.
type VectorIndex struct {
	coll *chromem.Collection
}

// NewVectorIndex opens the persistent index. With no embedding endpoint
// configured it returns a disabled index whose mutations are no-ops.
func NewVectorIndex(cfg config.Embedding, path string) (*VectorIndex, error) {
	if cfg.BaseURL == "" {
		return &VectorIndex{}, nil
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	normalized := true
	embed := chromem.NewEmbeddingFuncOpenAICompat(cfg.BaseURL, cfg.APIKey, cfg.Model, &normalized)
	coll, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}
	return &VectorIndex{coll: coll}, nil
}

func (v *VectorIndex) Enabled() bool {
	return v != nil && v.coll != nil
}

// Upsert stores text for rid, replacing any prior entry. Blank text is
// skipped.
func (v *VectorIndex) Upsert(ctx context.Context, rid, text string, meta map[string]string) error {
	if !v.Enabled() || strings.TrimSpace(text) == "" {
		return nil
	}
	if meta == nil {
		meta = map[string]string{}
	}
	meta["rid"] = rid
	return v.coll.AddDocument(ctx, chromem.Document{
		ID:       rid,
		Content:  text,
		Metadata: meta,
	})
}

// Delete removes the entry for rid; a missing entry is not an error.
func (v *VectorIndex) Delete(ctx context.Context, rid string) error {
	if !v.Enabled() {
		return nil
	}
	if err := v.coll.Delete(ctx, nil, nil, rid); err != nil && !strings.Contains(err.Error(), "not found") {
		return fmt.Errorf("delete index entry: %w", err)
	}
	return nil
}

// Search returns the n closest entries for the query.
func (v *VectorIndex) Search(ctx context.Context, query string, n int) ([]dto.SearchHit, error) {
	if !v.Enabled() {
		return nil, ErrIndexDisabled
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if count := v.coll.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := v.coll.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	hits := make([]dto.SearchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, dto.SearchHit{
			RID:              res.ID,
			Text:             res.Content,
			OriginalFilename: res.Metadata["original_filename"],
			Score:            res.Similarity,
		})
	}
	return hits, nil
}

// Rebuild scans every record and upserts its best text, preferring the
// summary over the transcript. Records with neither are skipped.
func (v *VectorIndex) Rebuild(ctx context.Context, store repository.RecordStore) (indexed, skipped int, err error) {
	if !v.Enabled() {
		return 0, 0, ErrIndexDisabled
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, rec := range records {
		text, ok := store.ReadSummary(rec.RID)
		if !ok || strings.TrimSpace(text) == "" {
			text, _ = store.ReadTranscript(rec.RID)
		}
		if strings.TrimSpace(text) == "" {
			skipped++
			continue
		}

		meta := map[string]string{
			"original_filename": rec.OriginalFilename,
			"created_at":        strconv.FormatInt(rec.CreatedAt, 10),
		}
		if err := v.Upsert(ctx, rec.RID, text, meta); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("rid", rec.RID).Msg("failed to index record")
			skipped++
			continue
		}
		indexed++
	}
	return indexed, skipped, nil
}
