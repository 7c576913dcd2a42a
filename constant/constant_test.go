package constant

import "testing"

func TestParseRunMode(t *testing.T) {
	cases := []struct {
		in   string
		want RunMode
		ok   bool
	}{
		{"all", ModeAll, true},
		{"transcribe", ModeTranscribe, true},
		{"summarize", ModeSummarize, true},
		{" All ", ModeAll, true},
		{"SUMMARIZE", ModeSummarize, true},
		{"", "", false},
		{"everything", "", false},
	}
	for _, c := range cases {
		got, ok := ParseRunMode(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseRunMode(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestIsAudioExtension(t *testing.T) {
	for _, ext := range []string{".wav", ".mp3", ".m4a", ".aac", ".flac", ".ogg", ".WAV", ".Mp3"} {
		if !IsAudioExtension(ext) {
			t.Errorf("IsAudioExtension(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{".txt", ".mp4", "", "wav"} {
		if IsAudioExtension(ext) {
			t.Errorf("IsAudioExtension(%q) = true, want false", ext)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := map[PipelineState]bool{
		StateIdle:         false,
		StateQueued:       false,
		StateRunning:      false,
		StateTranscribing: false,
		StateSummarizing:  false,
		StateDone:         true,
		StateError:        true,
	}
	for state, want := range terminal {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}

func TestModeStageInclusion(t *testing.T) {
	if !ModeAll.IncludesTranscribe() || !ModeAll.IncludesSummarize() {
		t.Error("mode all must include both stages")
	}
	if !ModeTranscribe.IncludesTranscribe() || ModeTranscribe.IncludesSummarize() {
		t.Error("mode transcribe must include only transcription")
	}
	if ModeSummarize.IncludesTranscribe() || !ModeSummarize.IncludesSummarize() {
		t.Error("mode summarize must include only summarization")
	}
}
