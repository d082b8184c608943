package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/notekeeper/apiserver/internal/auth"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/mail"
	"github.com/notekeeper/apiserver/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var defaultImage = []byte("default-image-bytes")

type staticImages struct {
	data []byte
	err  error
}

func (s staticImages) DefaultImage(context.Context) ([]byte, error) {
	return s.data, s.err
}

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() (mail.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mail.Message{}, false
	}
	return o.sent[len(o.sent)-1], true
}

type stubResolver struct {
	identity FederatedIdentity
	err      error
}

func (s stubResolver) Resolve(_ context.Context, provider, accessToken string) (FederatedIdentity, error) {
	if s.err != nil {
		return FederatedIdentity{}, s.err
	}
	if accessToken != "good-token" {
		return FederatedIdentity{}, errors.New("token rejected")
	}
	identity := s.identity
	identity.Provider = provider
	return identity, nil
}

type userFixture struct {
	svc    *UserService
	repo   *store.MemoryUserRepository
	tokens *auth.TokenService
	hasher *auth.Hasher
	outbox *outbox
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	repo := store.NewMemoryUserRepository()
	hasher := auth.NewHasher(bcrypt.MinCost, "federated-secret")
	tokens := auth.NewTokenService("jwt-secret", time.Hour)
	box := &outbox{}
	svc := NewUserService(UserServiceDeps{
		Repo:   repo,
		Hasher: hasher,
		Tokens: tokens,
		Images: staticImages{data: defaultImage},
		Mailer: box,
		Resolver: stubResolver{identity: FederatedIdentity{
			Subject: "109876543210",
			Email:   "fed@x.com",
			Name:    "Fed User",
		}},
		MailFrom: "no-reply@notekeeper.local",
		Log:      logging.Nop(),
	})
	return userFixture{svc: svc, repo: repo, tokens: tokens, hasher: hasher, outbox: box}
}
