package constant

import "strings"

type PipelineState string

const (
	StateIdle         PipelineState = "idle"
	StateQueued       PipelineState = "queued"
	StateRunning      PipelineState = "running"
	StateTranscribing PipelineState = "transcribing"
	StateSummarizing  PipelineState = "summarizing"
	StateDone         PipelineState = "done"
	StateError        PipelineState = "error"
)

func (s PipelineState) String() string {
	return string(s)
}

// Terminal reports whether no further transition is expected within a run.
func (s PipelineState) Terminal() bool {
	return s == StateDone || s == StateError
}

type RunMode string

const (
	ModeTranscribe RunMode = "transcribe"
	ModeSummarize  RunMode = "summarize"
	ModeAll        RunMode = "all"
)

func (m RunMode) String() string {
	return string(m)
}

func (m RunMode) IncludesTranscribe() bool {
	return m == ModeTranscribe || m == ModeAll
}

func (m RunMode) IncludesSummarize() bool {
	return m == ModeSummarize || m == ModeAll
}

// ParseRunMode validates a client-supplied mode string.
func ParseRunMode(raw string) (RunMode, bool) {
	switch RunMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeTranscribe:
		return ModeTranscribe, true
	case ModeSummarize:
		return ModeSummarize, true
	case ModeAll:
		return ModeAll, true
	default:
		return "", false
	}
}

// Error codes recorded in the status document's error field.
const (
	ErrCodeStorageFailure       = "storage_failure"
	ErrCodeRecordNotFound       = "record_not_found"
	ErrCodeTranscriptionFailure = "transcription_failure"
	ErrCodeSummarizeTimeout     = "summarize_timeout"
	ErrCodeSummarizeFailure     = "summarize_failure"
	ErrCodeStatusCorruption     = "status_corruption"
)

var audioExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
}

// IsAudioExtension reports whether ext (with leading dot) is an accepted
// upload extension. Matching is case-insensitive.
func IsAudioExtension(ext string) bool {
	_, ok := audioExtensions[strings.ToLower(ext)]
	return ok
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
