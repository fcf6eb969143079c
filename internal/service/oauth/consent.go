// Package oauth implements the consent step of the authorization code flow
// for third-party apps reading a farm: request validation, the approve and
// deny redirects, and short-lived signed codes.
package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	codeTTL      = 10 * time.Minute
	codeIssuer   = "porkyfarm"
	responseCode = "code"
	methodS256   = "S256"
	methodPlain  = "plain"
	errDenied    = "access_denied"
)

var (
	ErrMissingParam      = errors.New("missing required parameter")
	ErrUnknownClient     = errors.New("unknown client")
	ErrRedirectMismatch  = errors.New("redirect_uri not registered for client")
	ErrUnsupportedType   = errors.New("unsupported response_type")
	ErrUnsupportedMethod = errors.New("unsupported code_challenge_method")
	ErrInvalidScope      = errors.New("invalid scope")
	ErrInvalidCode       = errors.New("invalid authorization code")
)

// Client is a registered third-party application.
type Client struct {
	ID           string
	Name         string
	RedirectURIs []string
	Scopes       []string
}

// Request is a parsed and validated consent request.
type Request struct {
	Client              Client
	RedirectURI         string
	Scopes              []string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// CodeClaims are carried by an authorization code.
type CodeClaims struct {
	Scope               string `json:"scope"`
	RedirectURI         string `json:"redirect_uri"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
	jwtlib.RegisteredClaims
}

// Service validates consent requests and issues codes.
type Service struct {
	clients map[string]Client
	secret  []byte
	now     func() time.Time
	logger  *zap.Logger
}

// NewService builds a consent service for the given registered clients.
func NewService(secret string, clients []Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	byID := make(map[string]Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return &Service{clients: byID, secret: []byte(secret), now: time.Now, logger: logger}
}

// Parse validates the query of an authorize request.
// Errors wrap one of the package sentinels.
func (s *Service) Parse(q url.Values) (Request, error) {
	for _, name := range []string{"client_id", "redirect_uri", "response_type"} {
		if strings.TrimSpace(q.Get(name)) == "" {
			return Request{}, fmt.Errorf("%w: %s", ErrMissingParam, name)
		}
	}

	client, ok := s.clients[q.Get("client_id")]
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrUnknownClient, q.Get("client_id"))
	}
	redirect := q.Get("redirect_uri")
	if !slices.Contains(client.RedirectURIs, redirect) {
		return Request{}, ErrRedirectMismatch
	}
	if q.Get("response_type") != responseCode {
		return Request{}, fmt.Errorf("%w: %s", ErrUnsupportedType, q.Get("response_type"))
	}

	scopes := strings.Fields(q.Get("scope"))
	for _, sc := range scopes {
		if !slices.Contains(client.Scopes, sc) {
			return Request{}, fmt.Errorf("%w: %s", ErrInvalidScope, sc)
		}
	}
	if len(scopes) == 0 {
		scopes = slices.Clone(client.Scopes)
	}

	req := Request{
		Client:        client,
		RedirectURI:   redirect,
		Scopes:        scopes,
		State:         q.Get("state"),
		CodeChallenge: q.Get("code_challenge"),
	}
	if req.CodeChallenge != "" {
		req.CodeChallengeMethod = q.Get("code_challenge_method")
		if req.CodeChallengeMethod == "" {
			req.CodeChallengeMethod = methodPlain
		}
		if req.CodeChallengeMethod != methodS256 && req.CodeChallengeMethod != methodPlain {
			return Request{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.CodeChallengeMethod)
		}
	}
	return req, nil
}

// Approve issues a code for userID and returns the redirect location.
func (s *Service) Approve(req Request, userID string) (string, error) {
	now := s.now()
	claims := CodeClaims{
		Scope:               strings.Join(req.Scopes, " "),
		RedirectURI:         req.RedirectURI,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    codeIssuer,
			Subject:   userID,
			Audience:  jwtlib.ClaimStrings{req.Client.ID},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(codeTTL)),
		},
	}
	code, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign code: %w", err)
	}

	s.logger.Info("consent approved",
		zap.String("client_id", req.Client.ID),
		zap.String("user_id", userID),
		zap.Strings("scopes", req.Scopes))
	return redirectWith(req.RedirectURI, url.Values{"code": {code}}, req.State)
}

// Deny returns the redirect location telling the client access was refused.
func (s *Service) Deny(req Request) (string, error) {
	s.logger.Info("consent denied", zap.String("client_id", req.Client.ID))
	return redirectWith(req.RedirectURI, url.Values{"error": {errDenied}}, req.State)
}

// VerifyCode checks a code issued to clientID and returns its claims.
func (s *Service) VerifyCode(code, clientID string) (*CodeClaims, error) {
	claims := &CodeClaims{}
	_, err := jwtlib.ParseWithClaims(code, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(codeIssuer),
		jwtlib.WithAudience(clientID),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return claims, nil
}

func redirectWith(base string, params url.Values, state string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse redirect_uri: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
