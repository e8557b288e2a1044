package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"pageCraftNN/internal/schema"
	"pageCraftNN/internal/transform"
	"pageCraftNN/services"
)

const (
	headerItemsTransformed     = "X-Items-Transformed"
	headerResolutionsProcessed = "X-Resolutions-Processed"
)

type ProcessHandler struct {
	processService *services.ProcessService
	logger         *zap.Logger
}

func NewProcessHandler(processService *services.ProcessService, logger *zap.Logger) *ProcessHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessHandler{
		processService: processService,
		logger:         logger,
	}
}

// Root mirrors the editor's liveness probe.
func (h *ProcessHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "PageCraft NN Server is running! POST to /process for NN proxy.",
	})
}

func (h *ProcessHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "pagecraft-nn",
	})
}

// Process accepts {"payload": SavedWork} and answers {"processedPayload": SavedWork}.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, stats, err := h.processService.Process(r.Context(), body)
	if err != nil {
		h.respondWithProcessError(w, err)
		return
	}

	w.Header().Set(headerItemsTransformed, strconv.Itoa(stats.TotalItems))
	w.Header().Set(headerResolutionsProcessed, strconv.Itoa(stats.Resolutions))
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ProcessHandler) respondWithProcessError(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	var derr *transform.DepthExceededError

	switch {
	case errors.As(err, &verr):
		respondWithDetails(w, http.StatusBadRequest, "invalid payload", verr.Fields)
	case errors.As(err, &derr):
		respondWithDetails(w, http.StatusUnprocessableEntity, transform.ErrDepthExceeded.Error(), []schema.FieldError{
			{Path: derr.ShortPath(), Message: "nesting exceeds " + strconv.Itoa(derr.Limit) + " levels"},
		})
	default:
		h.logger.Error("process failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
