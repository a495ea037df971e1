package api

import (
	"fmt"
	"net/http"

	"github.com/odyssey-erp/odyssey-orders/internal/bulk"
	"github.com/odyssey-erp/odyssey-orders/internal/platform/httpx"
)

func (h *Handler) bulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.bulk.UpdateStatus(r.Context(), req.IDs, req.Status, req.Reason)
	h.respondReport(w, report, err)
}

func (h *Handler) bulkPriority(w http.ResponseWriter, r *http.Request) {
	var req bulkPriorityRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.bulk.UpdatePriority(r.Context(), req.IDs, req.Priority)
	h.respondReport(w, report, err)
}

func (h *Handler) bulkArchive(w http.ResponseWriter, r *http.Request) {
	var req bulkArchiveRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.bulk.Archive(r.Context(), req.IDs, req.Archived)
	h.respondReport(w, report, err)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.bulk.Delete(r.Context(), req.IDs)
	h.respondReport(w, report, err)
}

// respondReport fails the request only when nothing in the batch succeeded.
func (h *Handler) respondReport(w http.ResponseWriter, report bulk.Report, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if report.AllFailed() {
		httpx.JSON(w, http.StatusConflict, httpx.Result{
			Success: false,
			Error:   fmt.Sprintf("none of %d orders could be processed", report.Processed),
			Data:    report,
		})
		return
	}
	msg := fmt.Sprintf("%d of %d orders processed", len(report.Succeeded), report.Processed)
	httpx.OK(w, msg, report)
}
