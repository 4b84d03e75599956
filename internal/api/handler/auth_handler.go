package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grabandgo/campus-orders/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates a STUDENT or RESTAURANT account.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Signup(c.Request().Context(), toSignupInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// RecoverPassword resets a password after checking the security answer.
//
// @Summary      Recover password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      recoverPasswordRequest  true  "Recovery details"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /recover-password [post]
func (h *AuthHandler) RecoverPassword(c echo.Context) error {
	var req recoverPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.RecoverPassword(c.Request().Context(), req.Email, req.SecurityAnswer, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// RealtimeToken mints a short-lived token for the realtime gateway.
//
// @Summary      Realtime connection token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      realtimeTokenRequest  true  "Subscriber"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /realtime-token [post]
func (h *AuthHandler) RealtimeToken(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req realtimeTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.RealtimeToken(c.Request().Context(), caller, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}
