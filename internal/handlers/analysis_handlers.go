package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// AnalysisHandler handles analysis-related routes
type AnalysisHandler struct {
	analysisService AnalysisServiceInterface
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(analysisService AnalysisServiceInterface) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// RunAnalysis analyzes the buffered tables of a dataset.
// The request blocks until the analysis is finished. A failed run reports
// the id of its FAILED session in the error details.
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, constants.ParamID)

	session, err := h.analysisService.RunAnalysis(r.Context(), datasetID)
	if err != nil {
		appErr := utils.ParseError(err)
		if session != nil {
			appErr = appErr.WithDetail(constants.ColumnAnalysisID, session.ID)
		}
		utils.ErrorFromAppError(w, appErr)
		return
	}

	utils.JSON(w, http.StatusCreated, session)
}

// ListAnalyses returns analysis sessions newest first
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	sessions, err := h.analysisService.ListAnalyses(r.Context(), limit)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.List(w, sessions, len(sessions))
}

// GetAnalysis returns a session with its top comments, users and posts
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	detail, err := h.analysisService.GetAnalysisDetail(r.Context(), chi.URLParam(r, constants.ParamID))
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, detail)
}

// ExportAnalysis downloads the results of a completed analysis.
// format=csv (default) returns the suspicious comments, format=report the
// JSON report and format=xlsx the report as a workbook.
func (h *AnalysisHandler) ExportAnalysis(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, constants.ParamID)

	format := r.URL.Query().Get(constants.QueryParamFormat)
	if format == "" {
		format = constants.ExportFormatCSV
	}

	switch format {
	case constants.ExportFormatCSV:
		data, filename, err := h.analysisService.ExportCSV(r.Context(), analysisID)
		if err != nil {
			utils.ErrorFromAppError(w, utils.ParseError(err))
			return
		}
		utils.File(w, data, filename, constants.ContentTypeCSV)

	case constants.ExportFormatReport:
		report, err := h.analysisService.ExportReport(r.Context(), analysisID)
		if err != nil {
			utils.ErrorFromAppError(w, utils.ParseError(err))
			return
		}
		utils.JsonFile(w, report, fmt.Sprintf("argus_analysis_%s_report.json", analysisID))

	case constants.ExportFormatXLSX:
		data, filename, err := h.analysisService.ExportWorkbook(r.Context(), analysisID)
		if err != nil {
			utils.ErrorFromAppError(w, utils.ParseError(err))
			return
		}
		utils.File(w, data, filename, constants.ContentTypeXLSX)

	default:
		utils.ValidationError(w, map[string]string{constants.QueryParamFormat: constants.MsgUnsupportedExportFormat})
	}
}

// ScoreComments scores ad-hoc comment texts with the model of an analysis
func (h *AnalysisHandler) ScoreComments(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	scored, err := h.analysisService.ScoreComments(r.Context(), chi.URLParam(r, constants.ParamID), req.Texts)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.List(w, scored, len(scored))
}

// Dashboard returns the overall statistics and recent analyses
func (h *AnalysisHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.analysisService.Dashboard(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, dashboard)
}
