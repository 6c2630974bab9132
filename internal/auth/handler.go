package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"notes-api/internal/httputil"
	"notes-api/internal/logging"
	"notes-api/internal/ratelimit"
	"notes-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignupRequest is shared by the direct signup and the send-otp step
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyOTPRequest struct {
	OTP       string `json:"otp"`
	TempToken string `json:"tempToken"`
}

type GoogleLoginRequest struct {
	Token string `json:"token"`
}

type SignupResponse struct {
	Msg   string `json:"msg"`
	Token string `json:"token"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SendOTPResponse struct {
	Msg       string `json:"msg"`
	TempToken string `json:"tempToken"`
}

// Signup handles direct registration with email and password
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkIPLimit(w, r, "signup") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	_, token, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			logger.Warn("signup failed: missing fields")
			respondError(w, "please enter all fields", httputil.CodeMissingFields, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			respondError(w, "user already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully")

	respondJSON(w, SignupResponse{
		Msg:   "User registered successfully!",
		Token: token,
	}, http.StatusCreated)
}

// Login handles password login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkIPLimit(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			logger.Warn("login failed: missing fields")
			respondError(w, "please enter all fields", httputil.CodeMissingFields, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid credentials", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	respondJSON(w, LoginResponse{Token: token}, http.StatusOK)
}

// SendOTP initiates an OTP-gated signup
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkIPLimit(w, r, "send-otp") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid send-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Per-email cooldown so one address cannot be flooded with codes
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
		// Continue despite error
	} else if onCooldown {
		logger.Warn("email on cooldown")
		respondError(w, "please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	tempToken, err := h.service.SendOTP(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			logger.Warn("send-otp failed: missing fields")
			respondError(w, "please enter all fields", httputil.CodeMissingFields, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("send-otp failed: email already exists")
			respondError(w, "user already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		logger.Error("send-otp failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	logger.Info("otp sent")

	respondJSON(w, SendOTPResponse{
		Msg:       "OTP sent to your email",
		TempToken: tempToken,
	}, http.StatusOK)
}

// VerifyOTP confirms an OTP-gated signup
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, token, err := h.service.VerifyOTP(r.Context(), req.OTP, req.TempToken)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			logger.Warn("verify-otp failed: missing fields")
			respondError(w, "please provide OTP and temporary token", httputil.CodeMissingFields, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidSignupToken) {
			logger.Warn("verify-otp failed: invalid signup token")
			respondError(w, "signup token is invalid or has expired", httputil.CodeInvalidSignupToken, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("verify-otp failed: email already exists")
			respondError(w, "user already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrOTPNotFound) {
			logger.Warn("verify-otp failed: otp not found")
			respondError(w, "OTP has expired or is invalid", httputil.CodeOTPNotFound, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrOTPMismatch) {
			logger.Warn("verify-otp failed: otp mismatch")
			respondError(w, "invalid OTP", httputil.CodeOTPMismatch, http.StatusBadRequest)
			return
		}
		logger.Error("verify-otp failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered via otp", "user_id", newUser.ID)

	respondJSON(w, SignupResponse{
		Msg:   "User registered successfully!",
		Token: token,
	}, http.StatusCreated)
}

// GoogleLogin authenticates with a Google ID token
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid google login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		logger.Warn("google login failed: no token provided")
		respondError(w, "no token provided", httputil.CodeMissingFields, http.StatusBadRequest)
		return
	}

	token, err := h.service.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidGoogleToken) {
			logger.Warn("google login failed: invalid token")
			respondError(w, "invalid Google token", httputil.CodeInvalidGoogleToken, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("google login failed: email already registered with a password")
			respondError(w, "user already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		logger.Error("google login failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in via google")

	respondJSON(w, LoginResponse{Token: token}, http.StatusOK)
}

// checkIPLimit applies the per-IP window for the given purpose and
// writes a 429 when it is exceeded. Limiter failures are logged and
// the request proceeds.
func (h *Handler) checkIPLimit(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
