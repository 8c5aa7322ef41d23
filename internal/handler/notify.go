package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/notify"
)

// NotifyHandler serves the one-time code and transactional message routes
// under /auth.
type NotifyHandler struct {
	notify *notify.Service
	logger *slog.Logger
}

// NewNotifyHandler creates a new NotifyHandler.
func NewNotifyHandler(svc *notify.Service, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{notify: svc, logger: logger}
}

type destinationRequest struct {
	Destination string `json:"destination"`
}

type verifyRequest struct {
	Destination string `json:"destination"`
	Code        string `json:"code"`
}

// SendOTP POST /auth/send-otp
func (h *NotifyHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	h.sendCode(w, r, model.PurposeOTP, "OTP sent successfully")
}

// VerifyOTP POST /auth/verify-otp
func (h *NotifyHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	h.verifyCode(w, r, model.PurposeOTP, "OTP verified successfully")
}

// SendResetPasswordCode POST /auth/send-reset-password-code
func (h *NotifyHandler) SendResetPasswordCode(w http.ResponseWriter, r *http.Request) {
	h.sendCode(w, r, model.PurposeResetPassword, "Reset password code sent successfully")
}

// VerifyResetPasswordCode POST /auth/verify-reset-password-code
func (h *NotifyHandler) VerifyResetPasswordCode(w http.ResponseWriter, r *http.Request) {
	h.verifyCode(w, r, model.PurposeResetPassword, "Reset password code verified successfully")
}

// SendPurchaseConfirmation POST /auth/send-purchase-confirmation
func (h *NotifyHandler) SendPurchaseConfirmation(w http.ResponseWriter, r *http.Request) {
	var req notify.PurchaseConfirmation
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.notify.SendPurchaseConfirmation(r.Context(), req); err != nil {
		h.writeNotifyError(w, r, "send purchase confirmation", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Purchase confirmation sent successfully"})
}

// SendDeletionRequest POST /auth/send-data-deletion-request
func (h *NotifyHandler) SendDeletionRequest(w http.ResponseWriter, r *http.Request) {
	var req notify.DeletionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.notify.SendDeletionRequest(r.Context(), req); err != nil {
		h.writeNotifyError(w, r, "send deletion request", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Data deletion request sent successfully"})
}

func (h *NotifyHandler) sendCode(w http.ResponseWriter, r *http.Request, purpose model.CodePurpose, okMsg string) {
	var req destinationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.notify.SendCode(r.Context(), purpose, req.Destination); err != nil {
		h.writeNotifyError(w, r, "send "+string(purpose)+" code", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: okMsg})
}

func (h *NotifyHandler) verifyCode(w http.ResponseWriter, r *http.Request, purpose model.CodePurpose, okMsg string) {
	var req verifyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.notify.VerifyCode(r.Context(), purpose, req.Destination, req.Code); err != nil {
		h.writeNotifyError(w, r, "verify "+string(purpose)+" code", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: okMsg})
}

func (h *NotifyHandler) writeNotifyError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, notify.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, notify.ErrCodeInvalid):
		writeError(w, http.StatusBadRequest, "Invalid or expired code")
	default:
		h.logger.ErrorContext(r.Context(), op, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+op+": "+err.Error())
	}
}
