package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// DatasetHandler handles dataset-related routes
type DatasetHandler struct {
	datasetService DatasetServiceInterface
	maxUploadSize  int64
}

// NewDatasetHandler creates a new DatasetHandler. Uploads larger than
// maxUploadSize bytes are rejected.
func NewDatasetHandler(datasetService DatasetServiceInterface, maxUploadSize int64) *DatasetHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSize
	}
	return &DatasetHandler{
		datasetService: datasetService,
		maxUploadSize:  maxUploadSize,
	}
}

// GenerateDataset creates a synthetic dataset and buffers it for analysis
func (h *DatasetHandler) GenerateDataset(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	ds, err := h.datasetService.GenerateDataset(r.Context(), req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusCreated, ds)
}

// GenerateAndDownload creates a synthetic dataset and returns both tables as
// CSV text without storing anything
func (h *DatasetHandler) GenerateAndDownload(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	out, err := h.datasetService.GenerateCSV(req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, out)
}

// UploadDataset accepts a multipart form with posts_file and comments_file
func (h *DatasetHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > h.maxUploadSize {
			utils.BadRequest(w, constants.MsgRequestBodyTooLarge, nil)
			return
		}
		utils.BadRequest(w, "Request must be a multipart form", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	posts, _, err := r.FormFile(constants.FormFieldPosts)
	if err != nil {
		utils.ValidationError(w, map[string]string{constants.FormFieldPosts: "File is required"})
		return
	}
	defer posts.Close()

	comments, _, err := r.FormFile(constants.FormFieldComments)
	if err != nil {
		utils.ValidationError(w, map[string]string{constants.FormFieldComments: "File is required"})
		return
	}
	defer comments.Close()

	ds, err := h.datasetService.UploadDataset(
		r.Context(),
		r.FormValue(constants.FormFieldName),
		r.FormValue(constants.FormFieldDescription),
		posts,
		comments,
	)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusCreated, ds)
}

// ListDatasets returns datasets newest first
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	datasets, err := h.datasetService.ListDatasets(r.Context(), limit)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.List(w, datasets, len(datasets))
}

// GetDataset returns a single dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasetService.GetDataset(r.Context(), chi.URLParam(r, constants.ParamID))
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, ds)
}

// DownloadDataset returns the tables of a dataset that was not analyzed yet
func (h *DatasetHandler) DownloadDataset(w http.ResponseWriter, r *http.Request) {
	out, err := h.datasetService.DownloadDataset(r.Context(), chi.URLParam(r, constants.ParamID))
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, out)
}

// decodeGenerateRequest reads generator parameters. An empty body selects
// every default.
func decodeGenerateRequest(r *http.Request) (*models.GenerateDatasetRequest, error) {
	var req models.GenerateDatasetRequest
	if r.Body == nil || r.ContentLength == 0 {
		return &req, utils.ValidateStruct(&req)
	}
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// parseLimit reads the limit query parameter.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get(constants.QueryParamLimit)
	if raw == "" {
		return constants.DefaultListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, utils.NewValidationError(constants.QueryParamLimit, "Must be a positive integer")
	}
	if limit > constants.MaxListLimit {
		limit = constants.MaxListLimit
	}
	return limit, nil
}
