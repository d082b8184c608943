package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notekeeper/apiserver/internal/auth"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/services"
)

const (
	fieldProvider    = "provider"
	fieldAccessToken = "access_token"
)

// AuthHandler provides account endpoints.
type AuthHandler struct {
	users    *services.UserService
	uploader *Uploader
	log      logging.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, uploader *Uploader, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, uploader: uploader, log: log}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, tokens *auth.TokenService, uploader *Uploader, log logging.Logger) {
	handler := NewAuthHandler(users, uploader, log)
	requireAuth := RequireAuth(tokens)

	r.Use(LimitBody(uploader.BodyLimit()))
	r.Post("/createuser", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/forgotpassword", handler.ForgotPassword)
	r.With(requireAuth).Post("/getuser", handler.GetProfile)
	r.With(requireAuth).Post("/updateuser", handler.UpdateProfile)
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
}

type UpdateProfileResponse struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Msg   string `json:"msg"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

// Register creates an account from a local password or a provider access token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	image, err := h.uploader.Read(r, formFieldImage)
	if err != nil {
		writeServiceError(w, r, h.log, uploadError(err))
		return
	}

	in := services.RegisterInput{
		Name:  fields.get("name"),
		Email: fields.get("email"),
		Image: image,
	}
	cred, identity, err := h.credential(r.Context(), fields)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	in.Credential = cred
	if in.Name == "" {
		in.Name = identity.Name
	}
	in.Email = accountEmail(in.Email, identity)

	if err := h.users.Register(r.Context(), in); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RegisterResponse{Success: true, Msg: "Registration Successful"})
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	cred, identity, err := h.credential(r.Context(), fields)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	email := accountEmail(fields.get("email"), identity)

	token, err := h.users.Login(r.Context(), email, cred)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Success: true})
}

// GetProfile returns the caller's profile.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	profile, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes the caller's name and/or picture.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	fields, err := parseFields(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	image, err := h.uploader.Read(r, formFieldImage)
	if err != nil {
		writeServiceError(w, r, h.log, uploadError(err))
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		Name:  fields.optional("name"),
		Image: image,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateProfileResponse{Name: profile.Name, Image: profile.Image, Msg: "Successfull"})
}

// ForgotPassword mails a new password to the account owner.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	if err := h.users.ForgotPassword(r.Context(), fields.get("email")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Password reset email sent"})
}

// credential builds a federated credential when the request names a
// provider, and a local one otherwise.
func (h *AuthHandler) credential(ctx context.Context, fields requestFields) (auth.Credential, services.FederatedIdentity, error) {
	provider := fields.get(fieldProvider)
	if provider == "" {
		return auth.LocalCredential{Password: fields.raw("password")}, services.FederatedIdentity{}, nil
	}
	cred, identity, err := h.users.ResolveFederated(ctx, provider, fields.get(fieldAccessToken))
	if err != nil {
		return nil, services.FederatedIdentity{}, err
	}
	return cred, identity, nil
}

// accountEmail returns the address the provider verified, if any. The
// request's address is used only for local credentials or when the provider
// does not disclose one.
func accountEmail(requested string, identity services.FederatedIdentity) string {
	if identity.Email != "" {
		return identity.Email
	}
	return requested
}
