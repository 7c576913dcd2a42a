package entities

import "audio-diary/constant"

// RecordMeta is the metadata document persisted as {rid}.meta.json.
type RecordMeta struct {
	RID              string `json:"rid"`
	OriginalFilename string `json:"original_filename"`
	CreatedAt        int64  `json:"created_at"`
}

// RecordSummary is one row of the record listing: a record joined with its
// status and derived-artifact presence flags.
type RecordSummary struct {
	RID              string                 `json:"rid"`
	OriginalFilename string                 `json:"original_filename"`
	DisplayFilename  string                 `json:"display_filename"`
	StoredFilename   string                 `json:"stored_filename"`
	AudioURL         string                 `json:"audio_url"`
	CreatedAt        int64                  `json:"created_at"`
	State            constant.PipelineState `json:"state"`
	HasTranscript    bool                   `json:"has_transcript"`
	HasSummary       bool                   `json:"has_summary"`
}
