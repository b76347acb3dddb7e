package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"hotseat-quiz/internal/app"
	"hotseat-quiz/internal/domain"
)

const maxImportBytes = 1 << 20

// BankHandler exposes bank management over plain HTTP+JSON.
type BankHandler struct {
	banks *app.BankService
}

func NewBankHandler(banks *app.BankService) *BankHandler {
	return &BankHandler{banks: banks}
}

// Register mounts the bank routes on mux.
func (h *BankHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /banks", h.list)
	mux.HandleFunc("POST /banks", h.create)
	mux.HandleFunc("DELETE /banks/{id}", h.delete)
	mux.HandleFunc("GET /banks/{id}/export", h.export)
	mux.HandleFunc("POST /banks/import", h.importBank)
	mux.HandleFunc("POST /banks/{id}/questions", h.addQuestion)
	mux.HandleFunc("PATCH /banks/{id}/questions/{qid}", h.updateQuestion)
	mux.HandleFunc("DELETE /banks/{id}/questions/{qid}", h.deleteQuestion)
}

type createBankRequest struct {
	Name string `json:"name"`
}

type conflictPayload struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func (h *BankHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.banks.ListAll())
}

func (h *BankHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	bank, err := h.banks.Create(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

func (h *BankHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.banks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BankHandler) export(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.banks.ExportOne(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// importBank answers 409 when the name is taken and no ?onConflict= policy was given;
// the client resumes by re-posting the same document with a policy.
func (h *BankHandler) importBank(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import document too large")
		return
	}

	pending, err := h.banks.PrepareImport(data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	policy := domain.ConflictPolicy(r.URL.Query().Get("onConflict"))
	if pending.Conflict && policy == "" {
		writeJSON(w, http.StatusConflict, conflictPayload{Message: domain.ErrNameConflict.Error(), Name: pending.Bank.Name})
		return
	}

	bank, err := h.banks.CommitImport(r.Context(), pending, policy)
	switch {
	case errors.Is(err, domain.ErrImportCancelled):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNameConflict):
		writeJSON(w, http.StatusConflict, conflictPayload{Message: err.Error(), Name: pending.Bank.Name})
	case err != nil:
		writeDomainError(w, err)
	default:
		writeJSON(w, http.StatusCreated, bank)
	}
}

func (h *BankHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var draft domain.QuestionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question payload")
		return
	}
	question, err := h.banks.AddQuestion(r.Context(), r.PathValue("id"), draft)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *BankHandler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuestionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question payload")
		return
	}
	if err := h.banks.UpdateQuestion(r.Context(), r.PathValue("id"), r.PathValue("qid"), patch); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BankHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.banks.DeleteQuestion(r.Context(), r.PathValue("id"), r.PathValue("qid")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrMalformedJSON):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBankNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBuiltinReadOnly):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("bank request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
