package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"audio-diary/constant"
	"audio-diary/metrics"
	"audio-diary/repository"
)

// Runner executes the transcribe/summarize pipeline for one record.
type Runner interface {
	Run(ctx context.Context, rid string, mode constant.RunMode)
}

type pipelineRunner struct {
	store       repository.RecordStore
	status      repository.StatusTracker
	transcriber Transcriber
	summarizer  Summarizer
	index       *VectorIndex
	metrics     *metrics.Metrics

	summarizeTimeout time.Duration
}

func NewPipelineRunner(
	store repository.RecordStore,
	status repository.StatusTracker,
	transcriber Transcriber,
	summarizer Summarizer,
	index *VectorIndex,
	summarizeTimeout time.Duration,
) Runner {
	return &pipelineRunner{
		store:            store,
		status:           status,
		transcriber:      transcriber,
		summarizer:       summarizer,
		index:            index,
		metrics:          metrics.Default,
		summarizeTimeout: summarizeTimeout,
	}
}

// Run drives the status document through
// running -> [transcribing] -> [summarizing] -> done | error.
// Every failure is recorded into the status document and stops the run;
// there is no automatic retry.
func (r *pipelineRunner) Run(ctx context.Context, rid string, mode constant.RunMode) {
	rid = repository.SanitizeID(rid)
	log := zerolog.Ctx(ctx).With().Str("rid", rid).Str("mode", mode.String()).Logger()
	ctx = log.WithContext(ctx)

	audioPath, ok := r.store.AudioPath(rid)
	if !ok {
		r.fail(ctx, rid, mode, 0, constant.ErrCodeRecordNotFound, "audio file not found")
		return
	}

	started := time.Now().Unix()
	r.status.Write(ctx, rid, constant.StateRunning, mode, "", "", started)

	transcript := ""
	if mode.IncludesTranscribe() {
		r.status.Write(ctx, rid, constant.StateTranscribing, mode, "", "", started)

		stageStart := time.Now()
		text, err := r.transcriber.Transcribe(ctx, audioPath)
		r.metrics.StageDuration.WithLabelValues("transcribe").Observe(time.Since(stageStart).Seconds())
		if err != nil {
			r.fail(ctx, rid, mode, started, constant.ErrCodeTranscriptionFailure, err.Error())
			return
		}
		// Silent or garbled audio must not produce a false done.
		if strings.TrimSpace(text) == "" {
			r.fail(ctx, rid, mode, started, constant.ErrCodeTranscriptionFailure, "transcription produced no text")
			return
		}
		if err := r.store.WriteTranscript(rid, text); err != nil {
			r.fail(ctx, rid, mode, started, constant.ErrCodeStorageFailure, err.Error())
			return
		}
		transcript = text
	}

	if mode.IncludesSummarize() {
		r.status.Write(ctx, rid, constant.StateSummarizing, mode, "", "", started)

		if transcript == "" {
			stored, ok := r.store.ReadTranscript(rid)
			if !ok || strings.TrimSpace(stored) == "" {
				r.fail(ctx, rid, mode, started, constant.ErrCodeSummarizeFailure, "no transcript to summarize")
				return
			}
			transcript = stored
		}

		stageStart := time.Now()
		summary, errCode, errDetail := r.summarizeWithTimeout(ctx, transcript)
		r.metrics.StageDuration.WithLabelValues("summarize").Observe(time.Since(stageStart).Seconds())
		if errCode != "" {
			r.fail(ctx, rid, mode, started, errCode, errDetail)
			return
		}
		if err := r.store.WriteSummary(rid, summary); err != nil {
			r.fail(ctx, rid, mode, started, constant.ErrCodeStorageFailure, err.Error())
			return
		}
	}

	r.status.Write(ctx, rid, constant.StateDone, mode, "", "", started)
	r.metrics.PipelineRuns.WithLabelValues(constant.StateDone.String()).Inc()
	log.Info().Msg("pipeline run completed")

	r.indexRecord(ctx, rid)
}

// summarizeWithTimeout bounds the summarize stage with a hard wall clock
// limit. On timeout the backend call is abandoned, not cancelled; it may
// finish in the background with its result discarded.
func (r *pipelineRunner) summarizeWithTimeout(ctx context.Context, transcript string) (summary, errCode, errDetail string) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := r.summarizer.Summarize(context.WithoutCancel(ctx), transcript)
		ch <- result{text: text, err: err}
	}()

	timer := time.NewTimer(r.summarizeTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return "", constant.ErrCodeSummarizeTimeout, fmt.Sprintf("summarization exceeded %s", r.summarizeTimeout)
	case res := <-ch:
		if res.err != nil {
			return "", constant.ErrCodeSummarizeFailure, res.err.Error()
		}
		return res.text, "", ""
	}
}

func (r *pipelineRunner) fail(ctx context.Context, rid string, mode constant.RunMode, started int64, errCode, detail string) {
	zerolog.Ctx(ctx).Error().
		Str("rid", rid).
		Str("error_code", errCode).
		Str("detail", detail).
		Msg("pipeline run failed")

	r.status.Write(ctx, rid, constant.StateError, mode, detail, errCode, started)
	r.store.WriteErrorArtifact(ctx, rid, errCode+": "+detail)
	r.metrics.PipelineRuns.WithLabelValues(constant.StateError.String()).Inc()
}

// indexRecord upserts the record's best text after a successful run. Index
// failures never fail the run.
func (r *pipelineRunner) indexRecord(ctx context.Context, rid string) {
	if !r.index.Enabled() {
		return
	}

	text, ok := r.store.ReadSummary(rid)
	if !ok || strings.TrimSpace(text) == "" {
		text, _ = r.store.ReadTranscript(rid)
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	meta := map[string]string{}
	if m, ok := r.store.ReadMeta(rid); ok {
		meta["original_filename"] = m.OriginalFilename
		meta["created_at"] = strconv.FormatInt(m.CreatedAt, 10)
	}
	if err := r.index.Upsert(ctx, rid, text, meta); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to index record")
		return
	}
	r.metrics.IndexedDocuments.Inc()
}
