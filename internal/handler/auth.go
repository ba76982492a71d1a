package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body api.RegisterRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.auth.Register(domain.Registration{
		DisplayName: body.DisplayName,
		Email:       body.Email,
		Password:    body.Password,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.NewUserPrivate(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	pair, err := h.auth.Login(domain.Credentials{Email: body.Email, Password: body.Password})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.setAccessCookie(w, pair.AccessToken, pair.ExpiresIn)
	utils.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body api.RefreshRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	pair, err := h.auth.Refresh(body.RefreshToken)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.setAccessCookie(w, pair.AccessToken, pair.ExpiresIn)
	utils.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var body api.RefreshRequest
	// Missing body just clears the cookie.
	if err := utils.Decode(r.Body, &body); err == nil && body.RefreshToken != "" {
		if err := h.auth.Logout(body.RefreshToken); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}

	h.clearAccessCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.auth.LogoutAll(user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.clearAccessCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body api.VerifyEmailRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.VerifyEmail(body.Token); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Email verified"})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.auth.ResendVerification(user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Verification email sent"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body api.ForgotPasswordRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.ForgotPassword(body.Email); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	// Same answer whether the account exists or not.
	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "If the account exists, a reset email was sent"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body api.ResetPasswordRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.ResetPassword(body.Token, body.NewPassword); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Password updated, please login again"})
}

func tokenResponse(pair domain.TokenPair) api.TokenResponse {
	return api.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    token,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
