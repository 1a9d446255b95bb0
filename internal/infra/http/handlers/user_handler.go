package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/auth"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type UserHandler struct {
	Users     *usecase.UserService
	JWTSecret string
	JWTTTL    time.Duration
	Log       *logrus.Logger
}

func NewUserHandler(users *usecase.UserService, secret string, ttl time.Duration, log *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, JWTSecret: secret, JWTTTL: ttl, Log: log}
}

type RegisterUserResponse struct {
	User  *usecase.UserOutput `json:"user"`
	Token string              `json:"token"`
}

type RepairRoleRequest struct {
	Role string `json:"role"`
}

// Register handles the public POST /users signup.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input usecase.RegisterUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.Users.RegisterUser(r.Context(), input)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	token, err := auth.GenerateJWT(out.ID, string(out.Role), h.JWTSecret, h.JWTTTL)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterUserResponse{User: out, Token: token})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	user, err := h.Users.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, usecase.NewUserOutput(user))
}

func (h *UserHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	out, err := h.Users.ListSalesUsers(r.Context(), actor)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) RepairRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req RepairRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.Users.RepairUserRole(r.Context(), actor, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
