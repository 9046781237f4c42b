package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/queue"
	"github.com/iliyamo/taskflow/internal/repository"
	"github.com/iliyamo/taskflow/internal/utils"
)

// AuthDeps bundles the collaborators of AuthService and UserService.
type AuthDeps struct {
	Users         UserStore
	Tokens        RefreshLedger
	Issuer        *utils.TokenIssuer
	Hasher        utils.Hasher
	Events        EventPublisher // optional, defaults to NopPublisher
	Metrics       AuthRecorder   // optional
	RotateRefresh bool           // issue-new/delete-old on every refresh
	Now           func() time.Time
}

func (d *AuthDeps) defaults() {
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// AuthService implements register, login, refresh and logout.
type AuthService struct {
	d AuthDeps

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(d AuthDeps) *AuthService {
	d.defaults()
	return &AuthService{d: d}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string // optional, defaults to the email local part
	Role     model.Role
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User         model.User
	AccessToken  utils.SignedToken
	RefreshToken utils.SignedToken
}

// RefreshResult carries the new access token.  RefreshToken is set only when
// rotation is enabled.
type RefreshResult struct {
	AccessToken  utils.SignedToken
	RefreshToken *utils.SignedToken
}

// Register creates an active user and logs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := model.NormalizeEmail(in.Email)
	if _, err := s.d.Users.GetByEmail(ctx, email); err == nil {
		s.d.Metrics.AuthOutcome("register", "conflict")
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.d.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	name := in.Name
	if name == "" {
		name = model.DefaultName(email)
	}
	role := in.Role
	if role == "" {
		role = model.RoleMember
	}
	now := s.d.Now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.d.Users.Create(ctx, u); err != nil {
		// a concurrent registration won the unique key
		if errors.Is(err, repository.ErrEmailExists) {
			s.d.Metrics.AuthOutcome("register", "conflict")
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.d.Metrics.AuthOutcome("register", "success")
	s.publish(queue.EventUserRegistered, u.ID, u.Email, string(u.Role), "")
	return res, nil
}

// Login verifies credentials of an active user.  Unknown email, inactive
// account and wrong password all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	u, err := s.d.Users.GetByEmail(ctx, model.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn the same bcrypt time as a real comparison
			s.d.Hasher.Verify(s.dummy(), in.Password)
			s.d.Metrics.AuthOutcome("login", "failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.d.Hasher.Verify(u.PasswordHash, in.Password) || !u.IsActive {
		s.d.Metrics.AuthOutcome("login", "failure")
		return nil, ErrInvalidCredentials
	}

	res, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.d.Metrics.AuthOutcome("login", "success")
	s.publish(queue.EventUserLoggedIn, u.ID, u.Email, string(u.Role), "")
	return res, nil
}

// Refresh exchanges a refresh token for a new access token.  The signature
// is checked before the ledger is consulted; claims come from the refresh
// token itself.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*RefreshResult, error) {
	p, err := s.d.Issuer.VerifyRefreshToken(raw)
	if err != nil {
		s.d.Metrics.AuthOutcome("refresh", "failure")
		return nil, ErrInvalidRefreshToken
	}
	hash := utils.HashToken(raw)
	ok, err := s.d.Tokens.Exists(ctx, hash, s.d.Now())
	if err != nil {
		return nil, fmt.Errorf("check refresh token: %w", err)
	}
	if !ok {
		s.d.Metrics.AuthOutcome("refresh", "failure")
		return nil, ErrInvalidRefreshToken
	}

	access, err := s.d.Issuer.IssueAccessToken(p)
	if err != nil {
		return nil, err
	}
	res := &RefreshResult{AccessToken: access}

	if s.d.RotateRefresh {
		next, err := s.d.Issuer.IssueRefreshToken(p)
		if err != nil {
			return nil, err
		}
		if err := s.d.Tokens.Store(ctx, p.ID, utils.HashToken(next.Token), next.ExpiresAt); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
		if err := s.d.Tokens.Delete(ctx, hash); err != nil {
			return nil, fmt.Errorf("revoke refresh token: %w", err)
		}
		res.RefreshToken = &next
	}
	s.d.Metrics.AuthOutcome("refresh", "success")
	return res, nil
}

// Logout deletes the ledger row of raw.  Unknown or malformed tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if err := s.d.Tokens.Delete(ctx, utils.HashToken(raw)); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	s.d.Metrics.AuthOutcome("logout", "success")
	if p, err := s.d.Issuer.VerifyRefreshToken(raw); err == nil {
		s.publish(queue.EventUserLoggedOut, p.ID, p.Email, string(p.Role), "")
	}
	return nil
}

// Me loads the current record of the authenticated principal.
func (s *AuthService) Me(ctx context.Context, p model.Principal) (model.User, error) {
	u, err := s.d.Users.GetByID(ctx, p.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// PruneExpired removes ledger rows whose expiry has passed.
func (s *AuthService) PruneExpired(ctx context.Context) (int64, error) {
	return s.d.Tokens.DeleteExpired(ctx, s.d.Now())
}

// startSession mints an access/refresh pair and records the refresh token.
func (s *AuthService) startSession(ctx context.Context, u model.User) (*AuthResult, error) {
	p := u.Principal()
	access, err := s.d.Issuer.IssueAccessToken(p)
	if err != nil {
		return nil, err
	}
	refresh, err := s.d.Issuer.IssueRefreshToken(p)
	if err != nil {
		return nil, err
	}
	if err := s.d.Tokens.Store(ctx, u.ID, utils.HashToken(refresh.Token), refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.d.Hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

// publish sends an event in the background so broker latency never reaches
// the caller.
func (s *AuthService) publish(typ, userID, email, role, actorID string) {
	publishAsync(s.d.Events, newEvent(typ, userID, email, role, actorID, s.d.Now()))
}

func publishAsync(p EventPublisher, ev queue.AuthEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Publish(ctx, ev)
	}()
}
