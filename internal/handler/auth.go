package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/service"
)

// AuthHandler serves the credential endpoints under /api/auth and the
// current-user endpoint.
type AuthHandler struct {
	Auth    *service.AuthService
	Timeout time.Duration
}

func NewAuthHandler(a *service.AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Auth: a, Timeout: timeout}
}

// ----- DTOs -----

type registerReq struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
}

type loginReq struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type verifyReq struct {
	Token string `json:"token" validate:"required"`
}

type resendReq struct {
	Email string `json:"email" validate:"required,email"`
}

type userInfo struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	FullName  string     `json:"fullName"`
	Role      model.Role `json:"role"`
	Verified  bool       `json:"verified"`
}

func toUserInfo(u model.User) userInfo {
	return userInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.DisplayName(),
		Role:      u.Role,
		Verified:  u.Verified,
	}
}

type loginResp struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userInfo  `json:"user"`
	Message   string    `json:"message"`
}

type registerResp struct {
	Message               string `json:"message"`
	Email                 string `json:"email"`
	VerificationEmailSent bool   `json:"verificationEmailSent"`
}

type verificationResp struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Email   string `json:"email"`
}

// Register creates an unverified account. No session token is returned.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IP:        c.RealIP(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, registerResp{
		Message:               "Registration successful. Please check your email to verify your account.",
		Email:                 u.Email,
		VerificationEmailSent: true,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, service.LoginInput{Login: req.EmailOrUsername, Password: req.Password})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loginResp{
		Token:     res.Token,
		Type:      res.TokenType,
		ExpiresAt: res.ExpiresAt,
		User:      toUserInfo(res.User),
		Message:   "Login successful",
	})
}

// Verify redeems a token sent as JSON ({"token": ...}) or, for links
// opened directly, as the token query parameter.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if c.Request().Method == http.MethodGet {
		req.Token = c.QueryParam("token")
		if err := c.Validate(&req); err != nil {
			return writeError(c, err)
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Auth.VerifyEmail(ctx, req.Token)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, verificationResp{
		Message: "Email verified successfully. You can now log in.",
		Success: true,
		Email:   u.Email,
	})
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req resendReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Auth.ResendVerification(ctx, req.Email, c.RealIP()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, verificationResp{
		Message: "Verification email sent. Please check your inbox.",
		Success: true,
		Email:   req.Email,
	})
}

// Test is a liveness probe for the auth routes.
func (h *AuthHandler) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Auth endpoint is working"})
}

// Me returns the authenticated caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Auth.Me(ctx, identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserInfo(*u))
}
