package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/repositories/kv"
	"github.com/dmitrijs2005/mapfriends/internal/client/tokens"
	"github.com/dmitrijs2005/mapfriends/internal/common"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

// GRPCClient implements Backend and ProfileSource over the identity gRPC
// service. The refresh token is kept in the session store so the principal
// can be restored on the next start.
type GRPCClient struct {
	endpointURL string
	conn        io.Closer
	identity    identityAPI
	sessions    kv.Repository
	sessionKey  string
	timeout     time.Duration
	log         logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	principal    *models.Principal
	listeners    map[int]func(*models.Principal)
	nextID       int

	restoreOnce sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewGRPCClient dials endpointURL. sessions persists the refresh token under
// "{namespace}:session:refresh_token"; timeout bounds every call (0 means no
// bound). Extra dial options are appended, e.g. a bufconn dialer in tests.
func NewGRPCClient(endpointURL string, sessions kv.Repository, namespace string, timeout time.Duration, log logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	if namespace == "" {
		namespace = common.DefaultStorageNamespace
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &GRPCClient{
		endpointURL: endpointURL,
		sessions:    sessions,
		sessionKey:  namespace + ":session:refresh_token",
		timeout:     timeout,
		log:         log.With("module", "grpcclient"),
		listeners:   map[int]func(*models.Principal){},
		ctx:         ctx,
		cancel:      cancel,
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		cancel()
		return nil, err
	}
	c.conn = conn
	c.identity = identityStub{cc: conn}
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokenPair() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// accessTokenInterceptor attaches the access token and, when the backend
// reports it expired, refreshes the token pair once and retries.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == FullMethod(MethodRefreshToken) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokenPair()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	if _, rerr := s.refresh(ctx, refresh); rerr != nil {
		return err
	}

	access, _ = s.tokenPair()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// refresh exchanges refreshToken for a new token pair and principal.
func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) (*models.Principal, error) {
	resp, err := s.identity.Call(ctx, MethodRefreshToken, map[string]any{"refresh_token": refreshToken})
	if err != nil {
		return nil, mapError(err)
	}
	return s.adopt(ctx, resp.AsMap())
}

// adopt stores the tokens of an auth response and returns its principal.
func (s *GRPCClient) adopt(ctx context.Context, resp map[string]any) (*models.Principal, error) {
	idToken, _ := resp["id_token"].(string)
	access, _ := resp["access_token"].(string)
	refresh, _ := resp["refresh_token"].(string)

	claims, err := tokens.Decode(idToken)
	if err != nil {
		return nil, err
	}
	p, err := claims.Principal()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
	stored := s.refreshToken
	s.mu.Unlock()

	if stored != "" {
		if err := s.sessions.Set(ctx, s.sessionKey, []byte(stored)); err != nil {
			s.log.Warn(ctx, "refresh token not persisted", "error", err)
		}
	}
	return p, nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) call(ctx context.Context, method string, req map[string]any) (map[string]any, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.identity.Call(ctx, method, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp.AsMap(), nil
}

func (s *GRPCClient) signIn(ctx context.Context, method string, req map[string]any) (*models.Principal, error) {
	resp, err := s.call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	p, err := s.adopt(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	s.setPrincipal(p)
	return p, nil
}

func (s *GRPCClient) SignInPassword(ctx context.Context, email, password string) (*models.Principal, error) {
	return s.signIn(ctx, MethodSignInPassword, map[string]any{"email": email, "password": password})
}

func (s *GRPCClient) SignUpPassword(ctx context.Context, email, password string) (*models.Principal, error) {
	return s.signIn(ctx, MethodSignUpPassword, map[string]any{"email": email, "password": password})
}

func (s *GRPCClient) SignInWithCredential(ctx context.Context, cred models.Credential) (*models.Principal, error) {
	return s.signIn(ctx, MethodSignInWithCredential, map[string]any{
		"provider":     string(cred.Provider),
		"id_token":     cred.IDToken,
		"access_token": cred.AccessToken,
		"raw_nonce":    cred.RawNonce,
	})
}

func (s *GRPCClient) SendPasswordReset(ctx context.Context, email string) error {
	_, err := s.call(ctx, MethodSendPasswordReset, map[string]any{"email": email})
	return err
}

func (s *GRPCClient) UpdateDisplayName(ctx context.Context, name string) error {
	if _, err := s.call(ctx, MethodUpdateDisplayName, map[string]any{"display_name": name}); err != nil {
		return err
	}
	s.mu.Lock()
	if s.principal != nil {
		p := *s.principal
		p.DisplayName = name
		s.principal = &p
	}
	s.mu.Unlock()
	return nil
}

// SignOut revokes the session on the backend and always forgets it locally.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	_, refresh := s.tokenPair()
	_, err := s.call(ctx, MethodSignOut, map[string]any{"refresh_token": refresh})

	s.mu.Lock()
	s.accessToken, s.refreshToken = "", ""
	s.mu.Unlock()

	if derr := s.sessions.Delete(ctx, s.sessionKey); derr != nil {
		s.log.Warn(ctx, "refresh token not removed", "error", derr)
	}
	s.setPrincipal(nil)
	return err
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.call(ctx, MethodPing, map[string]any{})
	if err != nil {
		return err
	}
	if st, _ := resp["status"].(string); st != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) FetchProfile(ctx context.Context, uid string) (map[string]any, error) {
	resp, err := s.call(ctx, MethodGetProfile, map[string]any{"uid": uid})
	if err != nil {
		return nil, err
	}
	doc, _ := resp["profile"].(map[string]any)
	return doc, nil
}

func (s *GRPCClient) HandleOwner(ctx context.Context, handle string) (string, error) {
	resp, err := s.call(ctx, MethodGetHandleOwner, map[string]any{"handle": handle})
	if err != nil {
		return "", err
	}
	uid, _ := resp["uid"].(string)
	return uid, nil
}

func (s *GRPCClient) Subscribe(fn func(*models.Principal)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	go func() {
		s.restoreOnce.Do(s.restore)

		s.mu.Lock()
		_, subscribed := s.listeners[id]
		current := clonePrincipal(s.principal)
		s.mu.Unlock()

		if subscribed && s.ctx.Err() == nil {
			fn(current)
		}
	}()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// restore signs back in with the persisted refresh token, if any.
func (s *GRPCClient) restore() {
	ctx, cancel := s.withTimeout(s.ctx)
	defer cancel()

	raw, err := s.sessions.Get(ctx, s.sessionKey)
	if err != nil {
		s.log.Warn(ctx, "session store unreadable", "error", err)
		return
	}
	if len(raw) == 0 {
		return
	}

	p, err := s.refresh(ctx, string(raw))
	if err != nil {
		s.log.Info(ctx, "session not restored", "error", err)
		if errors.Is(err, ErrUnauthorized) {
			if derr := s.sessions.Delete(ctx, s.sessionKey); derr != nil {
				s.log.Warn(ctx, "stale refresh token not removed", "error", derr)
			}
		}
		return
	}

	s.mu.Lock()
	if s.principal == nil {
		s.principal = p
	}
	s.mu.Unlock()
}

func (s *GRPCClient) setPrincipal(p *models.Principal) {
	s.mu.Lock()
	s.principal = clonePrincipal(p)
	fns := make([]func(*models.Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(clonePrincipal(p))
	}
}

func (s *GRPCClient) Close() error {
	s.cancel()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func clonePrincipal(p *models.Principal) *models.Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
