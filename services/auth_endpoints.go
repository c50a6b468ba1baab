package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepdeck/models"
)

type AuthEndpoints struct {
	authService  *AuthService
	verification *VerificationService
	limiter      *RateLimiter
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

type ConfirmVerificationRequest struct {
	Token string `json:"token" validate:"required"`
}

func NewAuthEndpoints(authService *AuthService, verification *VerificationService, limiter *RateLimiter) *AuthEndpoints {
	return &AuthEndpoints{
		authService:  authService,
		verification: verification,
		limiter:      limiter,
	}
}

func (e *AuthEndpoints) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", e.LoginHandler)
	r.Post("/signup", e.SignupHandler)
	r.Post("/refresh", e.RefreshHandler)
	r.Post("/verify/confirm", e.ConfirmVerificationHandler)
}

func (e *AuthEndpoints) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", e.LogoutHandler)
	r.Get("/me", e.MeHandler)
	if e.limiter != nil {
		r.With(e.limiter.Middleware).Post("/verify/send", e.SendVerificationHandler)
	} else {
		r.Post("/verify/send", e.SendVerificationHandler)
	}
}

func userView(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
		"verified":  user.Verified(),
	}
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	authResponse, err := e.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err, "email", req.Email)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userView(authResponse.User),
		"message": "Login successful",
	})

	slog.Info("User logged in", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	authResponse, err := e.authService.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		slog.Error("Signup failed", "error", err, "email", req.Email)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Send the verification mail out of band; signup succeeds regardless.
	// The request context ends with the handler, so a fresh one is used.
	if e.verification != nil {
		go func(user models.User) {
			if err := e.verification.SendVerification(context.Background(), &user); err != nil {
				slog.Error("Failed to send verification email", "error", err, "user_id", user.ID)
			}
		}(*authResponse.User)
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    userView(authResponse.User),
		"message": "Signup successful, verification email sent",
	})

	slog.Info("User signed up", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	refreshToken := e.authService.GetTokenFromCookie(r, "refresh_token")
	if refreshToken == "" {
		writeError(w, http.StatusUnauthorized, "No refresh token provided")
		return
	}

	authResponse, err := e.authService.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token refreshed successfully",
	})

	slog.Info("Token refreshed", "user_id", authResponse.User.ID)
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := e.authService.Logout(r.Context(), user.ID); err != nil {
		slog.Error("Logout failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	e.authService.ClearAuthCookies(w)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logout successful",
	})

	slog.Info("User logged out", "user_id", user.ID)
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": userView(user),
	})
}

func (e *AuthEndpoints) SendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if e.verification == nil {
		writeError(w, http.StatusInternalServerError, "Email service not configured")
		return
	}

	if err := e.verification.SendVerification(r.Context(), user); err != nil {
		if errors.Is(err, ErrAlreadyVerified) {
			writeError(w, http.StatusConflict, "Email already verified")
			return
		}
		slog.Error("Failed to send verification email", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to send verification email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Verification email sent",
	})
}

func (e *AuthEndpoints) ConfirmVerificationHandler(w http.ResponseWriter, r *http.Request) {
	var req ConfirmVerificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if e.verification == nil {
		writeError(w, http.StatusInternalServerError, "Email service not configured")
		return
	}

	user, err := e.verification.Confirm(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyVerified):
			writeError(w, http.StatusConflict, "Email already verified")
		case errors.Is(err, ErrVerifyTokenInvalid), errors.Is(err, ErrVerifyTokenExpired):
			writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
		default:
			slog.Error("Email verification failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userView(user),
		"message": "Email verified",
	})
}
