package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"audio-diary/entities"
)

func newTestStore(t *testing.T) (*store, string, string) {
	t.Helper()
	uploadDir := t.TempDir()
	dataDir := t.TempDir()

	status, err := NewStatusTracker(dataDir)
	if err != nil {
		t.Fatalf("new status tracker: %v", err)
	}
	s, err := NewStore(uploadDir, dataDir, status)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s.(*store), uploadDir, dataDir
}

func writeTestRecord(t *testing.T, s *store, uploadDir, rid, originalFilename string, createdAt int64) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(uploadDir, rid+".wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	meta := entities.RecordMeta{RID: rid, OriginalFilename: originalFilename, CreatedAt: createdAt}
	raw, _ := json.Marshal(meta)
	if err := os.WriteFile(s.metaPath(rid), raw, 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
}

func TestSaveUploadCreatesRecord(t *testing.T) {
	s, uploadDir, _ := newTestStore(t)
	ctx := context.Background()

	rid, err := s.SaveUpload(ctx, []byte("audio-bytes"), "Voice Memo.WAV")
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if rid == "" {
		t.Fatal("expected non-empty rid")
	}

	path, ok := s.AudioPath(rid)
	if !ok {
		t.Fatal("audio path not resolvable after save")
	}
	if filepath.Ext(path) != ".wav" {
		t.Fatalf("stored extension = %s, want .wav", filepath.Ext(path))
	}
	if filepath.Dir(path) != uploadDir {
		t.Fatalf("audio stored in %s, want %s", filepath.Dir(path), uploadDir)
	}

	meta, ok := s.ReadMeta(rid)
	if !ok {
		t.Fatal("metadata missing after save")
	}
	if meta.OriginalFilename != "Voice Memo.WAV" {
		t.Fatalf("original filename = %q", meta.OriginalFilename)
	}
	if meta.CreatedAt == 0 {
		t.Fatal("created_at not stamped")
	}
}

func TestListRecordsDisambiguatesDuplicateNames(t *testing.T) {
	s, uploadDir, _ := newTestStore(t)

	writeTestRecord(t, s, uploadDir, "aaa", "voice.wav", 100)
	writeTestRecord(t, s, uploadDir, "bbb", "voice.wav", 200)
	writeTestRecord(t, s, uploadDir, "ccc", "voice.wav", 300)

	records, err := s.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	want := []struct {
		rid     string
		display string
	}{
		{"ccc", "voice.wav"},
		{"bbb", "voice.wav（1）"},
		{"aaa", "voice.wav（2）"},
	}
	for i, w := range want {
		if records[i].RID != w.rid {
			t.Errorf("records[%d].RID = %s, want %s", i, records[i].RID, w.rid)
		}
		if records[i].DisplayFilename != w.display {
			t.Errorf("records[%d].DisplayFilename = %q, want %q", i, records[i].DisplayFilename, w.display)
		}
	}
}

func TestListRecordsJoinsArtifactFlags(t *testing.T) {
	s, uploadDir, _ := newTestStore(t)
	writeTestRecord(t, s, uploadDir, "aaa", "a.wav", 100)

	if err := s.WriteTranscript("aaa", "hello world"); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	records, err := s.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if !records[0].HasTranscript {
		t.Error("expected HasTranscript")
	}
	if records[0].HasSummary {
		t.Error("did not expect HasSummary")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, uploadDir, _ := newTestStore(t)
	ctx := context.Background()

	writeTestRecord(t, s, uploadDir, "aaa", "a.wav", 100)
	if err := s.WriteTranscript("aaa", "text"); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	if err := s.WriteSummary("aaa", "summary"); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "aaa"); err != nil {
			t.Fatalf("delete #%d: %v", i+1, err)
		}
	}

	if _, ok := s.AudioPath("aaa"); ok {
		t.Error("audio still resolvable after delete")
	}
	if _, ok := s.ReadTranscript("aaa"); ok {
		t.Error("transcript still readable after delete")
	}
	if _, ok := s.ReadSummary("aaa"); ok {
		t.Error("summary still readable after delete")
	}

	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of unknown rid: %v", err)
	}
}

func TestSanitizeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{`"abc123"`, "abc123"},
		{"\t\"abc\" \n", "abc"},
		{"../../etc/passwd", ""},
		{"a/b", ""},
		{`a\b`, ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeID(c.in); got != c.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestListRecordsWithoutMetaFallsBack(t *testing.T) {
	s, uploadDir, _ := newTestStore(t)
	if err := os.WriteFile(filepath.Join(uploadDir, "orphan.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	records, err := s.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].OriginalFilename != "orphan.mp3" {
		t.Errorf("fallback filename = %q", records[0].OriginalFilename)
	}
	if records[0].CreatedAt == 0 {
		t.Error("expected created_at fallback from mod time")
	}
}

func TestSaveUploadManyHaveUniqueIDs(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		rid, err := s.SaveUpload(ctx, []byte("x"), fmt.Sprintf("rec%d.ogg", i))
		if err != nil {
			t.Fatalf("save upload: %v", err)
		}
		if seen[rid] {
			t.Fatalf("duplicate rid %s", rid)
		}
		seen[rid] = true
	}
}
