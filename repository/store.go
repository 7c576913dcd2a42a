package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"audio-diary/entities"
)

// SanitizeID normalizes an externally supplied rid before it is used to
// build file paths. Some clients quote path segments, so surrounding
// double-quote characters are stripped along with whitespace. Anything that
// still looks like a path escape is rejected outright.
func SanitizeID(raw string) string {
	rid := strings.Trim(raw, " \t\r\n\"")
	if strings.ContainsAny(rid, "/\\") || strings.Contains(rid, "..") {
		return ""
	}
	return rid
}

type RecordStore interface {
	SaveUpload(ctx context.Context, data []byte, originalFilename string) (string, error)
	ListRecords(ctx context.Context) ([]entities.RecordSummary, error)
	Delete(ctx context.Context, rid string) error
	AudioPath(rid string) (string, bool)
	ReadMeta(rid string) (entities.RecordMeta, bool)
	ReadTranscript(rid string) (string, bool)
	WriteTranscript(rid, text string) error
	ReadSummary(rid string) (string, bool)
	WriteSummary(rid, text string) error
	WriteErrorArtifact(ctx context.Context, rid, detail string)
}

type store struct {
	uploadDir string
	dataDir   string
	status    StatusTracker
}

func NewStore(uploadDir, dataDir string, status StatusTracker) (RecordStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &store{
		uploadDir: uploadDir,
		dataDir:   dataDir,
		status:    status,
	}, nil
}

func (s *store) transcriptPath(rid string) string {
	return filepath.Join(s.dataDir, rid+".txt")
}

func (s *store) summaryPath(rid string) string {
	return filepath.Join(s.dataDir, rid+".summary.txt")
}

func (s *store) metaPath(rid string) string {
	return filepath.Join(s.dataDir, rid+".meta.json")
}

func (s *store) errorPath(rid string) string {
	return filepath.Join(s.dataDir, rid+".error.txt")
}

// SaveUpload allocates a fresh rid, persists the audio blob as rid.<ext>
// and writes the metadata document. The rid is returned even on failure so
// the caller can record the error against it; a partially written blob is
// never left behind.
func (s *store) SaveUpload(ctx context.Context, data []byte, originalFilename string) (string, error) {
	rid := strings.ReplaceAll(uuid.New().String(), "-", "")
	ext := strings.ToLower(filepath.Ext(originalFilename))

	target := filepath.Join(s.uploadDir, rid+ext)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		os.Remove(target)
		return rid, fmt.Errorf("write audio blob: %w", err)
	}

	meta := entities.RecordMeta{
		RID:              rid,
		OriginalFilename: filepath.Base(originalFilename),
		CreatedAt:        time.Now().Unix(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		os.Remove(target)
		return rid, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(rid), raw, 0o644); err != nil {
		os.Remove(target)
		return rid, fmt.Errorf("write metadata: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("rid", rid).
		Str("filename", meta.OriginalFilename).
		Msg("record saved")
	return rid, nil
}

// ListRecords enumerates stored audio files newest first, joined with
// status and artifact presence. Duplicate original filenames are
// disambiguated deterministically: the most recent keeps the bare name,
// older ones get a numeric suffix in fullwidth parentheses.
func (s *store) ListRecords(ctx context.Context) ([]entities.RecordSummary, error) {
	dirEntries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	records := make([]entities.RecordSummary, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		rid := strings.TrimSuffix(name, ext)
		if rid == "" {
			continue
		}

		rec := entities.RecordSummary{
			RID:            rid,
			StoredFilename: name,
			AudioURL:       "/uploads/" + name,
			State:          s.status.Read(ctx, rid).State,
			HasTranscript:  exists(s.transcriptPath(rid)),
			HasSummary:     exists(s.summaryPath(rid)),
		}

		if meta, ok := s.ReadMeta(rid); ok {
			rec.OriginalFilename = meta.OriginalFilename
			rec.CreatedAt = meta.CreatedAt
		} else {
			rec.OriginalFilename = name
			if info, err := entry.Info(); err == nil {
				rec.CreatedAt = info.ModTime().Unix()
			}
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].RID > records[j].RID
	})

	seen := make(map[string]int, len(records))
	for i := range records {
		name := records[i].OriginalFilename
		if n := seen[name]; n > 0 {
			records[i].DisplayFilename = fmt.Sprintf("%s（%d）", name, n)
		} else {
			records[i].DisplayFilename = name
		}
		seen[name]++
	}

	return records, nil
}

// Delete removes the audio blob and every derived artifact. Deleting a
// nonexistent rid is a no-op.
func (s *store) Delete(ctx context.Context, rid string) error {
	rid = SanitizeID(rid)
	if rid == "" {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(s.uploadDir, rid+".*"))
	if err != nil {
		return fmt.Errorf("glob audio blob: %w", err)
	}
	targets := append(matches,
		s.transcriptPath(rid),
		s.summaryPath(rid),
		s.metaPath(rid),
		s.errorPath(rid),
		filepath.Join(s.dataDir, rid+".status.json"),
	)
	for _, target := range targets {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", target, err)
		}
	}

	zerolog.Ctx(ctx).Info().Str("rid", rid).Msg("record deleted")
	return nil
}

// AudioPath resolves the stored audio blob for rid.
func (s *store) AudioPath(rid string) (string, bool) {
	rid = SanitizeID(rid)
	if rid == "" {
		return "", false
	}
	matches, err := filepath.Glob(filepath.Join(s.uploadDir, rid+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func (s *store) ReadMeta(rid string) (entities.RecordMeta, bool) {
	raw, err := os.ReadFile(s.metaPath(rid))
	if err != nil {
		return entities.RecordMeta{}, false
	}
	var meta entities.RecordMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return entities.RecordMeta{}, false
	}
	return meta, true
}

func (s *store) ReadTranscript(rid string) (string, bool) {
	return readText(s.transcriptPath(rid))
}

func (s *store) WriteTranscript(rid, text string) error {
	return os.WriteFile(s.transcriptPath(rid), []byte(text), 0o644)
}

func (s *store) ReadSummary(rid string) (string, bool) {
	return readText(s.summaryPath(rid))
}

func (s *store) WriteSummary(rid, text string) error {
	return os.WriteFile(s.summaryPath(rid), []byte(text), 0o644)
}

// WriteErrorArtifact writes the legacy free-text error record. It is kept
// alongside the status document's error field and is best effort.
func (s *store) WriteErrorArtifact(ctx context.Context, rid, detail string) {
	if err := os.WriteFile(s.errorPath(rid), []byte(detail), 0o644); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to write error artifact")
	}
}

func readText(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
