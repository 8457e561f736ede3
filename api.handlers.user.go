package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// LoginResponse is sent back by the login endpoint. Only `success`
// is present when no user matches the email.
type LoginResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// Login looks a user up by email. No credential is checked.
//
//	@Summary	Login by email
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LoginRequest	true	"user email"
//	@Success	200		{object}	LoginResponse
//	@Failure	400		{object}	APIError
//	@Router		/api/login [post]
func (api *APIHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var login LoginRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	err := DecodeLoginRequestBody(r, &login)
	if err == nil {
		err = ValidateLoginRequestBody(&login)
	}
	if err != nil {
		api.logger.Error("failed to login", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "invalid login request", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	resp := LoginResponse{}
	if user, ok := api.library.FindUserByEmail(login.Email); ok {
		resp = LoginResponse{Success: true, Name: user.Name, Email: user.Email, UserID: user.UserID}
		api.logger.Info("success to login", zap.String("request.id", requestID), zap.String("user.id", user.UserID))
	} else {
		api.logger.Info("login with unknown email", zap.String("request.id", requestID))
	}
	if err = WriteJSON(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetUserHistory serves the recorded loan events of a user.
//
//	@Summary	Loan history of a user
//	@Produce	json
//	@Param		id	path		string	true	"user id"
//	@Success	200	{array}		LoanEvent
//	@Failure	404	{object}	APIError
//	@Router		/api/users/{id}/history [get]
func (api *APIHandler) GetUserHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	events, err := api.library.History(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		api.logger.Error("user does not exist", zap.String("user.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "user does not exist", nil)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to get loan history", zap.String("user.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get loan history", nil)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get loan history", zap.String("user.id", id), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, events); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
