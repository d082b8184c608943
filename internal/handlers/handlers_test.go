package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/notekeeper/apiserver/config"
	"github.com/notekeeper/apiserver/internal/auth"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/mail"
	"github.com/notekeeper/apiserver/internal/services"
	"github.com/notekeeper/apiserver/internal/store"
	"github.com/notekeeper/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testDefaultImage = []byte("default-picture")

type imageSource struct {
	err error
}

func (s imageSource) DefaultImage(context.Context) ([]byte, error) {
	return testDefaultImage, s.err
}

type captureSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (c *captureSender) Send(_ context.Context, msg mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

type fixedResolver struct{}

func (fixedResolver) Resolve(_ context.Context, provider, accessToken string) (services.FederatedIdentity, error) {
	if provider != services.ProviderGitHub {
		return services.FederatedIdentity{}, services.ErrUnsupportedProvider
	}
	switch accessToken {
	case "gh-token":
		return services.FederatedIdentity{Provider: provider, Subject: "42", Email: "octo@x.com", Name: "octocat"}, nil
	case "gh-private":
		return services.FederatedIdentity{Provider: provider, Subject: "7", Name: "hidden"}, nil
	}
	return services.FederatedIdentity{}, errors.New("bad token")
}

type testServer struct {
	handler   http.Handler
	tokens    *auth.TokenService
	users     *store.MemoryUserRepository
	notes     *store.MemoryNoteRepository
	outbox    *captureSender
	uploadDir string
	images    *imageSource
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		tokens:    auth.NewTokenService("handler-secret", time.Hour),
		users:     store.NewMemoryUserRepository(),
		notes:     store.NewMemoryNoteRepository(),
		outbox:    &captureSender{},
		uploadDir: t.TempDir(),
		images:    &imageSource{},
	}
	log := logging.Nop()
	userService := services.NewUserService(services.UserServiceDeps{
		Repo:     ts.users,
		Hasher:   auth.NewHasher(bcrypt.MinCost, "federated"),
		Tokens:   ts.tokens,
		Images:   ts.images,
		Mailer:   ts.outbox,
		Resolver: fixedResolver{},
		MailFrom: "no-reply@notekeeper.local",
		Log:      log,
	})
	noteService := services.NewNoteService(ts.notes, nil, log)
	uploader := NewUploader(config.UploadConfig{Dir: ts.uploadDir, MaxBytes: 64})

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, userService, ts.tokens, uploader, log)
	})
	router.Route("/api/notes", func(r chi.Router) {
		NoteRouter(r, noteService, RequireAuth(ts.tokens), log)
	})
	ts.handler = router
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(t *testing.T, name, email, password string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Token
}

func mustSubject(t *testing.T, ts *testServer, token string) string {
	t.Helper()
	userID, err := ts.tokens.Verify(token)
	require.NoError(t, err)
	return userID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterLoginAndProfile(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"name": "Alice123", "email": "a@x.com", "password": "longpass1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"msg":"Registration Successful"}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "longpass1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)

	rec = ts.do(t, http.MethodPost, "/api/auth/getuser", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile types.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "Alice123", profile.Name)
	assert.Equal(t, "a@x.com", profile.Email)
	assert.Equal(t, base64.StdEncoding.EncodeToString(testDefaultImage), profile.Image)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Failures(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Alice123", "a@x.com", "longpass1")

	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"name": "Alice123", "email": "a@x.com", "password": "longpass1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeError(t, rec).Msg)

	rec = ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"name": "Al", "email": "bad", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Validation Error", resp.Msg)
	assert.Len(t, resp.Errors, 3)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/createuser", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_InternalFailureIsGeneric(t *testing.T) {
	ts := newTestServer(t)
	ts.images.err = errors.New("bucket unreachable")

	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"name": "Alice123", "email": "a@x.com", "password": "longpass1",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec).Msg)
	assert.NotContains(t, rec.Body.String(), "bucket")
}

func TestRegister_MultipartImage(t *testing.T) {
	ts := newTestServer(t)
	image := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	body, contentType := multipartBody(t, map[string]string{
		"name": "Alice123", "email": "a@x.com", "password": "longpass1",
	}, image)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/createuser", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := ts.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), user.Image)

	staged, err := os.ReadDir(ts.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestRegister_ImageTooLarge(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, map[string]string{
		"name": "Alice123", "email": "a@x.com", "password": "longpass1",
	}, bytes.Repeat([]byte{'x'}, 65))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/createuser", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation Error", decodeError(t, rec).Msg)
	_, err := ts.users.GetByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegister_BodyOverLimit(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, map[string]string{
		"name": "Alice123", "email": "a@x.com", "password": "longpass1",
	}, bytes.Repeat([]byte{'x'}, 2<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/createuser", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", decodeError(t, rec).Msg)
	_, err := ts.users.GetByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogin_Failures(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Alice123", "a@x.com", "longpass1")

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeError(t, rec).Msg)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "z@x.com", "password": "longpass1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeError(t, rec).Msg)
}

func TestFederatedRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"provider": "github", "access_token": "gh-token",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := ts.users.GetByEmail(context.Background(), "octo@x.com")
	require.NoError(t, err)
	assert.True(t, user.Federated)
	assert.Equal(t, "octocat", user.Name)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"provider": "github", "access_token": "gh-token",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"provider": "github", "access_token": "stolen",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"provider": "myspace", "access_token": "gh-token",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation Error", decodeError(t, rec).Msg)

	rec = ts.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "octo@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFederatedRegister_UsesProviderEmail(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"provider": "github", "access_token": "gh-token", "email": "victim@x.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := ts.users.GetByEmail(ctx, "victim@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	user, err := ts.users.GetByEmail(ctx, "octo@x.com")
	require.NoError(t, err)
	assert.True(t, user.Federated)

	// The address owner can still sign up and reset a password.
	ts.register(t, "Victim User", "victim@x.com", "longpass1")
	rec = ts.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "victim@x.com"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"provider": "github", "access_token": "gh-token", "email": "victim@x.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	subject, err := ts.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestFederatedRegister_FallsBackToRequestEmail(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"provider": "github", "access_token": "gh-private",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/createuser", "", map[string]string{
		"provider": "github", "access_token": "gh-private", "email": "hidden@x.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"provider": "github", "access_token": "gh-private", "email": "hidden@x.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please authenticate using a valid token", decodeError(t, rec).Msg)

	rec = ts.do(t, http.MethodPost, "/api/auth/getuser", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	foreign := auth.NewTokenService("other-secret", time.Hour)
	token, err := foreign.Issue("someone")
	require.NoError(t, err)
	rec = ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/notes/fetchallnotes", nil)
	valid, err := ts.tokens.Issue("u1")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+valid)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetProfile_DeletedUser(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.tokens.Issue("ghost")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/auth/getuser", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice123", "a@x.com", "longpass1")

	image := []byte("fresh")
	body, contentType := multipartBody(t, map[string]string{"name": "Alice Cooper"}, image)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/updateuser", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(TokenHeader, token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UpdateProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Alice Cooper", resp.Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), resp.Image)
	assert.Equal(t, "Successfull", resp.Msg)

	rec = ts.do(t, http.MethodPost, "/api/auth/updateuser", token, map[string]string{"name": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Alice Cooper", resp.Name)
}

func TestForgotPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Alice123", "a@x.com", "longpass1")

	rec := ts.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "missing@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Password reset email sent"}`, rec.Body.String())
	require.Len(t, ts.outbox.sent, 1)
	assert.Equal(t, "a@x.com", ts.outbox.sent[0].To)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "longpass1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoteLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice123", "a@x.com", "longpass1")

	rec := ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/notes/addnewnote", token, map[string]string{
		"title": "Groceries", "description": "Things to buy this week", "content": "milk",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"msg":"Note Saved"}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notes []types.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	note := notes[0]
	assert.Equal(t, types.DefaultNoteTag, note.Tag)
	assert.Contains(t, rec.Body.String(), `"_id"`)

	rec = ts.do(t, http.MethodPut, "/api/notes/update/"+note.ID, token, map[string]string{"tag": "Work"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Successfully Saved"}`, rec.Body.String())

	stored, err := ts.notes.Get(context.Background(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", stored.Tag)
	assert.Equal(t, note.Title, stored.Title)
	assert.Equal(t, note.Content, stored.Content)

	rec = ts.do(t, http.MethodDelete, "/api/notes/deletenote/"+note.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Note has Been deleted","success":true}`, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/api/notes/deletenote/"+note.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec).Msg)
}

func TestCreateNote_Validation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice123", "a@x.com", "longpass1")

	rec := ts.do(t, http.MethodPost, "/api/notes/addnewnote", token, map[string]string{
		"title": "Hi", "description": "Things to buy this week", "content": "milk",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "title", resp.Errors[0].Field)

	rec = ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", token, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateNote_BodyOverLimit(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice123", "a@x.com", "longpass1")

	rec := ts.do(t, http.MethodPost, "/api/notes/addnewnote", token, map[string]string{
		"title": "Groceries", "description": "weekly shopping", "content": strings.Repeat("a", maxNoteBody),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	notes, err := ts.notes.ListByUser(context.Background(), mustSubject(t, ts, token))
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestUploader_BodyLimit(t *testing.T) {
	assert.Equal(t, int64(64+formOverhead), NewUploader(config.UploadConfig{MaxBytes: 64}).BodyLimit())
	assert.Zero(t, NewUploader(config.UploadConfig{}).BodyLimit())
}

func TestNoteMutations_OtherUser(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.register(t, "Alice123", "a@x.com", "longpass1")
	intruder := ts.register(t, "Mallory1", "m@x.com", "longpass2")

	rec := ts.do(t, http.MethodPost, "/api/notes/addnewnote", owner, map[string]string{
		"title": "Secret plan", "description": "Not for other eyes", "content": "...",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", owner, nil)
	var notes []types.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	id := notes[0].ID

	rec = ts.do(t, http.MethodGet, "/api/notes/fetchallnotes", intruder, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/api/notes/update/"+id, intruder, map[string]string{"title": "Owned!"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Allowed", decodeError(t, rec).Msg)

	rec = ts.do(t, http.MethodDelete, "/api/notes/deletenote/"+id, intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored, err := ts.notes.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Secret plan", stored.Title)
	assert.Equal(t, "Not for other eyes", stored.Description)
}

func TestParseFields_URLEncoded(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=a%40x.com&password=+secret+"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	fields, err := parseFields(req)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", fields.get("email"))
	assert.Equal(t, " secret ", fields.raw("password"))
	assert.Nil(t, fields.optional("name"))
}
