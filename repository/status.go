package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"audio-diary/constant"
	"audio-diary/entities"
)

// StatusTracker reads and writes per-record status documents. A document is
// always replaced wholesale; there are no partial updates and no history.
// At most one pipeline run is expected to write a given rid at a time, so
// last writer wins by contract.
type StatusTracker interface {
	Read(ctx context.Context, rid string) entities.StatusDocument
	Write(ctx context.Context, rid string, state constant.PipelineState, mode constant.RunMode, message, errDetail string, startedAt int64) entities.StatusDocument
}

type statusTracker struct {
	dataDir string
}

func NewStatusTracker(dataDir string) (StatusTracker, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &statusTracker{dataDir: dataDir}, nil
}

func (t *statusTracker) path(rid string) string {
	return filepath.Join(t.dataDir, rid+".status.json")
}

// Read returns the stored status document. A missing document yields idle
// defaults; an unparsable one yields a synthetic error document. Corruption
// never propagates to the caller.
func (t *statusTracker) Read(ctx context.Context, rid string) entities.StatusDocument {
	rid = SanitizeID(rid)
	idle := entities.StatusDocument{RID: rid, State: constant.StateIdle}
	if rid == "" {
		return idle
	}

	raw, err := os.ReadFile(t.path(rid))
	if err != nil {
		return idle
	}

	var doc entities.StatusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("rid", rid).Msg("unparsable status document")
		return entities.StatusDocument{
			RID:       rid,
			State:     constant.StateError,
			Error:     constant.ErrCodeStatusCorruption,
			Message:   "status document is unreadable",
			UpdatedAt: time.Now().Unix(),
		}
	}
	doc.RID = rid
	return doc
}

// Write replaces the status document, stamping updated_at with the current
// epoch seconds.
func (t *statusTracker) Write(ctx context.Context, rid string, state constant.PipelineState, mode constant.RunMode, message, errDetail string, startedAt int64) entities.StatusDocument {
	rid = SanitizeID(rid)
	doc := entities.StatusDocument{
		RID:       rid,
		State:     state,
		Mode:      mode,
		Message:   message,
		Error:     errDetail,
		StartedAt: startedAt,
		UpdatedAt: time.Now().Unix(),
	}
	if rid == "" {
		return doc
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to marshal status document")
		return doc
	}
	if err := os.WriteFile(t.path(rid), raw, 0o644); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to write status document")
	}
	return doc
}
