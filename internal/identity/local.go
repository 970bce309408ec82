package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

const (
	collectionCredentials   = "credentials"
	collectionEmailIndex    = "credentialEmails"
	collectionRefreshTokens = "refreshTokens"
)

// TokenPair is issued by the local provider on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Identity     Identity
}

// LocalProvider is a self-hosted identity provider: bcrypt password
// credentials and hashed refresh tokens kept in the document store, HS256
// access tokens.
type LocalProvider struct {
	store         docstore.Store
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

func NewLocalProvider(store docstore.Store, secret string, accessExpiry, refreshExpiry time.Duration) *LocalProvider {
	return &LocalProvider{
		store:         store,
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	uid := uuid.NewString()
	// The email index entry is the uniqueness claim; whoever creates it first owns the address.
	if err := p.store.CreateWithID(ctx, collectionEmailIndex, email, map[string]interface{}{"uid": uid}); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("failed to reserve email: %w", err)
	}

	err = p.store.CreateWithID(ctx, collectionCredentials, uid, map[string]interface{}{
		"email":        email,
		"passwordHash": string(hash),
		"displayName":  displayName,
		"createdAt":    p.now().UTC(),
	})
	if err != nil {
		_ = p.store.Delete(ctx, collectionEmailIndex, email)
		return "", fmt.Errorf("failed to store credentials: %w", err)
	}
	return uid, nil
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)
	idx, err := p.store.Get(ctx, collectionEmailIndex, email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	uid, _ := idx.Data["uid"].(string)

	cred, err := p.credentials(ctx, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(ctx, cred.identity)
}

func (p *LocalProvider) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	tokenHash := hashToken(rawRefresh)

	doc, err := p.store.Get(ctx, collectionRefreshTokens, tokenHash)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if revoked, _ := doc.Data["revoked"].(bool); revoked {
		return nil, ErrInvalidToken
	}

	// Refresh tokens are single use.
	if err := p.store.Update(ctx, collectionRefreshTokens, tokenHash, map[string]interface{}{"revoked": true}); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	expiresAt, _ := doc.Data["expiresAt"].(time.Time)
	if p.now().After(expiresAt) {
		return nil, ErrInvalidToken
	}

	uid, _ := doc.Data["uid"].(string)
	cred, err := p.credentials(ctx, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return p.issue(ctx, cred.identity)
}

func (p *LocalProvider) Logout(ctx context.Context, rawRefresh string) error {
	err := p.store.Update(ctx, collectionRefreshTokens, hashToken(rawRefresh), map[string]interface{}{"revoked": true})
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (p *LocalProvider) VerifyToken(_ context.Context, raw string) (*Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}

	id := &Identity{UID: sub}
	id.Email, _ = claims["email"].(string)
	id.DisplayName, _ = claims["name"].(string)
	return id, nil
}

type credentials struct {
	identity     Identity
	passwordHash string
}

func (p *LocalProvider) credentials(ctx context.Context, uid string) (*credentials, error) {
	if uid == "" {
		return nil, docstore.ErrNotFound
	}
	doc, err := p.store.Get(ctx, collectionCredentials, uid)
	if err != nil {
		return nil, err
	}
	c := &credentials{identity: Identity{UID: uid}}
	c.identity.Email, _ = doc.Data["email"].(string)
	c.identity.DisplayName, _ = doc.Data["displayName"].(string)
	c.passwordHash, _ = doc.Data["passwordHash"].(string)
	return c, nil
}

func (p *LocalProvider) issue(ctx context.Context, id Identity) (*TokenPair, error) {
	now := p.now()
	claims := jwt.MapClaims{
		"sub":   id.UID,
		"email": id.Email,
		"name":  id.DisplayName,
		"iat":   now.Unix(),
		"exp":   now.Add(p.accessExpiry).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	refresh := base64.URLEncoding.EncodeToString(rawBytes)

	err = p.store.CreateWithID(ctx, collectionRefreshTokens, hashToken(refresh), map[string]interface{}{
		"uid":       id.UID,
		"expiresAt": now.Add(p.refreshExpiry),
		"revoked":   false,
		"createdAt": now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, Identity: id}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
