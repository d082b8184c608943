package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/notekeeper/apiserver/internal/auth"
	"github.com/notekeeper/apiserver/internal/logging"
	mailer "github.com/notekeeper/apiserver/internal/mail"
	"github.com/notekeeper/apiserver/internal/store"
	"github.com/notekeeper/apiserver/types"
)

const (
	minNameLength     = 5
	minPasswordLength = 8
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// ImageSource provides the picture assigned to users who upload none.
type ImageSource interface {
	DefaultImage(ctx context.Context) ([]byte, error)
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name       string
	Email      string
	Credential auth.Credential
	Image      []byte
}

// ProfileUpdate carries a partial profile change. Nil/empty fields are kept.
type ProfileUpdate struct {
	Name  *string
	Image []byte
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo     UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenService
	images   ImageSource
	mailer   mailer.Sender
	resolver IdentityResolver
	mailFrom string
	log      logging.Logger
	random   io.Reader
}

// UserServiceDeps groups the collaborators of a UserService.
type UserServiceDeps struct {
	Repo     UserRepository
	Hasher   *auth.Hasher
	Tokens   *auth.TokenService
	Images   ImageSource
	Mailer   mailer.Sender
	Resolver IdentityResolver
	MailFrom string
	Log      logging.Logger
}

func NewUserService(deps UserServiceDeps) *UserService {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	return &UserService{
		repo:     deps.Repo,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		images:   deps.Images,
		mailer:   deps.Mailer,
		resolver: deps.Resolver,
		mailFrom: deps.MailFrom,
		log:      log,
	}
}

// Register creates an account. Local credentials are validated; federated
// ones carry synthesized values and skip the format checks.
func (s *UserService) Register(ctx context.Context, in RegisterInput) error {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	verr := &ValidationError{}
	provider := ""
	switch cred := in.Credential.(type) {
	case auth.LocalCredential:
		if utf8.RuneCountInString(name) < minNameLength {
			verr.add("name", "Enter a valid Name")
		}
		if !validEmail(email) {
			verr.add("email", "Enter a valid Email")
		}
		if utf8.RuneCountInString(cred.Password) < minPasswordLength {
			verr.add("password", "Password must be at least 8 characters long")
		}
	case auth.FederatedCredential:
		provider = cred.Provider
		if email == "" {
			verr.add("email", "Enter a valid Email")
		}
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
	default:
		verr.add("password", "Password must be at least 8 characters long")
	}
	if err := verr.err(); err != nil {
		return err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check user: %w", err)
	}

	secret, err := s.hasher.Secret(in.Credential)
	if err != nil {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	image := in.Image
	if len(image) == 0 {
		image, err = s.images.DefaultImage(ctx)
		if err != nil {
			return err
		}
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Federated:    provider != "",
		Provider:     provider,
		Image:        base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "federated", user.Federated)
	return nil
}

// Login verifies the credential and issues a token for the account.
func (s *UserService) Login(ctx context.Context, email string, cred auth.Credential) (string, error) {
	email = normalizeEmail(email)

	if local, ok := cred.(auth.LocalCredential); ok {
		verr := &ValidationError{}
		if !validEmail(email) {
			verr.add("email", "Enter a valid email")
		}
		if local.Password == "" {
			verr.add("password", "Password cannot be blank")
		}
		if err := verr.err(); err != nil {
			return "", err
		}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	secret, err := s.hasher.Secret(cred)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(secret, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// ResolveFederated verifies a provider access token and returns the
// credential plus what the provider reported about the user.
func (s *UserService) ResolveFederated(ctx context.Context, provider, accessToken string) (auth.FederatedCredential, FederatedIdentity, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if s.resolver == nil {
		return auth.FederatedCredential{}, FederatedIdentity{}, &ValidationError{Fields: []FieldError{{Field: "provider", Msg: "Unsupported provider"}}}
	}

	identity, err := s.resolver.Resolve(ctx, provider, accessToken)
	if err != nil {
		if errors.Is(err, ErrUnsupportedProvider) {
			return auth.FederatedCredential{}, FederatedIdentity{}, &ValidationError{Fields: []FieldError{{Field: "provider", Msg: "Unsupported provider"}}}
		}
		s.log.Warn(ctx, "federated identity rejected", "provider", provider, "error", err)
		return auth.FederatedCredential{}, FederatedIdentity{}, ErrInvalidCredentials
	}

	cred := auth.FederatedCredential{Provider: identity.Provider, Subject: identity.Subject}
	return cred, identity, nil
}

// GetProfile returns the caller's own profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (types.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile changes the supplied fields and returns the new profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (types.Profile, error) {
	var name string
	if update.Name != nil {
		name = strings.TrimSpace(*update.Name)
		if name != "" && utf8.RuneCountInString(name) < minNameLength {
			return types.Profile{}, &ValidationError{Fields: []FieldError{{Field: "name", Msg: "Enter a valid Name"}}}
		}
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}

	changed := false
	if name != "" {
		user.Name = name
		changed = true
	}
	if len(update.Image) > 0 {
		user.Image = base64.StdEncoding.EncodeToString(update.Image)
		changed = true
	}
	if !changed {
		return user.Profile(), nil
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, fmt.Errorf("update user: %w", err)
	}
	return updated.Profile(), nil
}

// ForgotPassword mails a freshly generated password and stores its hash
// only after the mail transport accepted the message.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return &ValidationError{Fields: []FieldError{{Field: "email", Msg: "Enter a valid Email"}}}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if user.Federated {
		return ErrFederatedAccount
	}

	password, err := generatePassword(s.random, resetPasswordLength)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	msg := mailer.Message{
		From:    s.mailFrom,
		To:      user.Email,
		Subject: "Your new password",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour password has been reset. Your new password is: %s\n\nPlease sign in and keep it safe.\n",
			user.Name, password,
		),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	user.PasswordHash = hash
	if _, err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset password: %w", err)
	}

	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (s *UserService) getUser(ctx context.Context, userID string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
