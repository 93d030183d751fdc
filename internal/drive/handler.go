package drive

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/pipeline"
)

// Runner executes a pipeline run; *pipeline.Runner implements it.
type Runner interface {
	Run(ctx context.Context, src pipeline.Source) (*pipeline.Outcome, error)
}

// FolderResolver maps a folder path to its Drive ID; *Service implements it.
type FolderResolver interface {
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type Handler struct {
	source  *Source
	folders FolderResolver
	runner  Runner
}

// NewHandler serves the Drive folder behind source. folders may be nil, in
// which case the "path" query parameter is rejected.
func NewHandler(source *Source, folders FolderResolver, runner Runner) *Handler {
	return &Handler{source: source, folders: folders, runner: runner}
}

// Router builds the Drive routes. The server mounts it under /api/drive.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/latest", h.LatestExports).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/run", h.Run).Methods(http.MethodPost)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		folderID = h.source.FolderID
	}

	if path := r.URL.Query().Get("path"); path != "" {
		if h.folders == nil {
			writeError(w, http.StatusBadRequest, "folder lookup by path is not available")
			return
		}
		id, err := h.folders.FindFolderByPath(r.Context(), path)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		folderID = id
	}

	files, err := h.source.Files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, files)
}

// LatestExports shows which files a run would pick.
func (h *Handler) LatestExports(w http.ResponseWriter, r *http.Request) {
	files, err := h.source.Files.ListFiles(r.Context(), h.source.FolderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	latest, err := Latest(files, h.source.Stock, h.source.Packed, h.source.Truck)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]*File{
		"stock":  latest[h.source.Stock],
		"packed": latest[h.source.Packed],
		"truck":  latest[h.source.Truck],
	})
}

// Run computes and stores results from the folder's newest exports.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.runner.Run(r.Context(), h.source)
	if err != nil {
		log.Error().Err(err).Msg("drive run failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := map[string]any{
		"status": "success",
		"days":   len(outcome.Results),
		"files":  outcome.Files,
	}
	if outcome.RunID != nil {
		resp["run_id"] = *outcome.RunID
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode drive response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
