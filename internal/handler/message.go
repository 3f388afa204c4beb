package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/httputils"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/ratelimit"
	"github.com/EDWINCHENC/c-transfer-unique/internal/service"
)

type MessageHandler struct {
	relay *service.RelayService
}

func NewMessageHandler(relay *service.RelayService) *MessageHandler {
	return &MessageHandler{relay: relay}
}

func (h *MessageHandler) RegisterRoutes(router *mux.Router, rl *ratelimit.Limiter) {
	router.HandleFunc("/messages/", rl.PerMinute("create_message", 10, h.createMessage)).Methods("POST", "OPTIONS")
	router.HandleFunc("/messages/", rl.PerMinute("list_messages", 20, h.listMessages)).Methods("GET", "OPTIONS")
	router.HandleFunc("/messages/{id:[0-9]+}", rl.PerMinute("delete_message", 5, h.deleteMessage)).Methods("DELETE", "OPTIONS")
}

type createMessageRequest struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Filename   *string `json:"filename"`
	AccessCode string  `json:"access_code"`
}

// @Summary Create message
// @Description Create a text message or a reference to an uploaded file under an access code
// @ID create-message
// @Accept json
// @Produce json
// @Param messageData body createMessageRequest true "Message data"
// @Success 200 {object} model.Message
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 429 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /messages/ [post]
func (h *MessageHandler) createMessage(w http.ResponseWriter, r *http.Request) {
	var request createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "invalid request format")
		return
	}
	r.Body.Close()

	msg, err := h.relay.CreateMessage(r.Context(), request.AccessCode, request.Type, request.Content, request.Filename, ClientIP(r))
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, msg)
}

// @Summary List messages
// @Description List all messages under an access code, newest first
// @ID list-messages
// @Produce json
// @Param access_code query string true "Access code"
// @Success 200 {object} []model.Message
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /messages/ [get]
func (h *MessageHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	accessCode := r.URL.Query().Get("access_code")
	if accessCode == "" {
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "access_code is required")
		return
	}

	messages, err := h.relay.ListMessages(r.Context(), accessCode)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, messages)
}

type deleteMessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// @Summary Delete message
// @Description Delete a message and any file it references
// @ID delete-message
// @Produce json
// @Param id path int true "Message ID"
// @Param access_code query string true "Access code"
// @Success 200 {object} deleteMessageResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /messages/{id} [delete]
func (h *MessageHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "invalid message id")
		return
	}

	accessCode := r.URL.Query().Get("access_code")
	if accessCode == "" {
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "access_code is required")
		return
	}

	if err := h.relay.DeleteMessage(r.Context(), uint(id), accessCode); err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, deleteMessageResponse{Status: "success", Message: "message deleted"})
}
