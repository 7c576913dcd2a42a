package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-diary/constant"
	"audio-diary/dto"
	"audio-diary/metrics"
	"audio-diary/repository"
	"audio-diary/service"
)

type Handler struct {
	store      repository.RecordStore
	status     repository.StatusTracker
	dispatcher *service.Dispatcher
	index      *service.VectorIndex
	metrics    *metrics.Metrics
}

func New(store repository.RecordStore, status repository.StatusTracker, dispatcher *service.Dispatcher, index *service.VectorIndex) *Handler {
	return &Handler{
		store:      store,
		status:     status,
		dispatcher: dispatcher,
		index:      index,
		metrics:    metrics.Default,
	}
}

// ListRecords renders the record listing, newest first.
func (h *Handler) ListRecords(c *gin.Context) {
	records, err := h.store.ListRecords(c.Request.Context())
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list records")
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": err.Error()})
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"records": records})
}

// Detail renders one record with its transcript, summary and status.
func (h *Handler) Detail(c *gin.Context) {
	rid := repository.SanitizeID(c.Param("rid"))
	audioPath, ok := h.store.AudioPath(rid)
	if !ok {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"rid": rid, "error": "record not found"})
		return
	}

	filename := filepath.Base(audioPath)
	if meta, ok := h.store.ReadMeta(rid); ok {
		filename = meta.OriginalFilename
	}
	transcript, _ := h.store.ReadTranscript(rid)
	summary, _ := h.store.ReadSummary(rid)

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"rid":        rid,
		"filename":   filename,
		"audio_url":  "/uploads/" + filepath.Base(audioPath),
		"transcript": transcript,
		"summary":    summary,
		"status":     h.status.Read(c.Request.Context(), rid),
	})
}

// Upload accepts a multipart audio file, creates the record and enqueues a
// full pipeline run. Unsupported extensions are rejected before any state
// is created.
func (h *Handler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.metrics.UploadsRejected.Inc()
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"error": "missing file field"})
		return
	}

	if !constant.IsAudioExtension(filepath.Ext(fileHeader.Filename)) {
		h.metrics.UploadsRejected.Inc()
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"filename": fileHeader.Filename,
			"error":    "unsupported audio type, expected one of: wav/mp3/m4a/aac/flac/ogg",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"filename": fileHeader.Filename, "error": err.Error()})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"filename": fileHeader.Filename, "error": err.Error()})
		return
	}

	rid, err := h.store.SaveUpload(ctx, data, fileHeader.Filename)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to save upload")
		h.store.WriteErrorArtifact(ctx, rid, err.Error())
		h.status.Write(ctx, rid, constant.StateError, constant.ModeAll, "upload failed", constant.ErrCodeStorageFailure, 0)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"rid":      rid,
			"filename": fileHeader.Filename,
			"error":    err.Error(),
		})
		return
	}

	h.metrics.UploadsTotal.Inc()
	h.dispatcher.Requeue(ctx, rid, constant.ModeAll)
	c.Redirect(http.StatusSeeOther, "/detail/"+rid)
}

// OverwriteSummary replaces the summary text by hand. Status is untouched.
func (h *Handler) OverwriteSummary(c *gin.Context) {
	ctx := c.Request.Context()
	rid := repository.SanitizeID(c.Param("rid"))
	if _, ok := h.store.AudioPath(rid); !ok {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"rid": rid, "error": "record not found"})
		return
	}

	text := c.PostForm("summary")
	if err := h.store.WriteSummary(rid, text); err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"rid": rid, "error": err.Error()})
		return
	}
	if err := h.index.Upsert(ctx, rid, text, nil); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to reindex summary")
	}
	c.Redirect(http.StatusSeeOther, "/detail/"+rid)
}

// Delete removes the record, its derived artifacts and its index entry.
// Idempotent: a nonexistent rid still redirects.
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	rid := repository.SanitizeID(c.Param("rid"))

	if err := h.store.Delete(ctx, rid); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to delete record")
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"rid": rid, "error": err.Error()})
		return
	}
	if err := h.index.Delete(ctx, rid); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("rid", rid).Msg("failed to delete index entry")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Status returns the status document; an absent document reads as idle.
func (h *Handler) Status(c *gin.Context) {
	rid := repository.SanitizeID(c.Param("rid"))
	c.JSON(http.StatusOK, h.status.Read(c.Request.Context(), rid))
}

// Rerun re-queues the pipeline for an existing record.
func (h *Handler) Rerun(c *gin.Context) {
	rid := repository.SanitizeID(c.Param("rid"))
	mode, ok := constant.ParseRunMode(c.PostForm("mode"))
	if !ok {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"rid":   rid,
			"error": "invalid mode, expected one of: transcribe/summarize/all",
		})
		return
	}

	h.dispatcher.Requeue(c.Request.Context(), rid, mode)
	c.Redirect(http.StatusSeeOther, "/detail/"+rid)
}

// Search runs a semantic query over the index.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil || n <= 0 {
		n = 10
	}

	hits, err := h.index.Search(c.Request.Context(), query, n)
	if err != nil {
		status := http.StatusInternalServerError
		if err == service.ErrIndexDisabled {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if hits == nil {
		hits = []dto.SearchHit{}
	}
	c.JSON(http.StatusOK, dto.SearchResponse{Query: query, Results: hits})
}

// RebuildIndex re-indexes every record from its stored text.
func (h *Handler) RebuildIndex(c *gin.Context) {
	indexed, skipped, err := h.index.Rebuild(c.Request.Context(), h.store)
	if err != nil {
		status := http.StatusInternalServerError
		if err == service.ErrIndexDisabled {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.RebuildResponse{Indexed: indexed, Skipped: skipped})
}
