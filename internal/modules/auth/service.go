package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"counseling/internal/domain"
	"counseling/internal/pkg/validator"

	"golang.org/x/crypto/bcrypt"
)

const SessionCookie = "session"

type Event string

const (
	EventSignedUp  Event = "SIGNED_UP"
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Session is an authenticated identity backed by a signed token.
type Session struct {
	Token     string
	User      domain.User
	ExpiresAt time.Time
}

type Listener func(event Event, session *Session)

// Service is the identity gateway: it registers users, verifies passwords
// and issues or resolves session tokens.
type Service struct {
	users UserRepository
	jwt   tokenService

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewService(users UserRepository, jwt tokenService) *Service {
	return &Service{
		users:     users,
		jwt:       jwt,
		listeners: make(map[int]Listener),
	}
}

// SignUp creates the account and signs it in.
func (s *Service) SignUp(ctx context.Context, creds Credentials) (*Session, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if errs := validator.Validate(creds); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Email: creds.Email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, domain.WrapStore("create user", err)
	}

	return s.issue(user, EventSignedUp)
}

func (s *Service) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, domain.WrapStore("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user, EventSignedIn)
}

// SignOut ends the session for listeners. Tokens are stateless, so the
// caller is responsible for discarding the cookie.
func (s *Service) SignOut(_ context.Context, session *Session) {
	if session == nil {
		return
	}
	s.emit(EventSignedOut, session)
}

// GetSession resolves a token into a live session. Invalid or expired
// tokens and deleted users yield domain.ErrUnauthenticated.
func (s *Service) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, domain.WrapStore("get user", err)
	}
	user.PasswordHash = ""

	session := &Session{Token: token, User: *user}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &session.User, nil
}

// Subscribe registers l for auth state changes and returns the function that removes it.
func (s *Service) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) issue(user *domain.User, event Event) (*Session, error) {
	token, claims, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	u := *user
	u.PasswordHash = ""
	session := &Session{Token: token, User: u, ExpiresAt: claims.ExpiresAt.Time}
	s.emit(event, session)
	return session, nil
}

func (s *Service) emit(event Event, session *Session) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("auth_listener_panic event=%s error=%v", event, r)
				}
			}()
			l(event, session)
		}()
	}
}

// ValidationError lists the offending fields and the rule each failed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return ErrInvalidSignUp.Error() }

func (e *ValidationError) Unwrap() error { return ErrInvalidSignUp }
