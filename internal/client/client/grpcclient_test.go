package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/tokens"
	"github.com/dmitrijs2005/mapfriends/internal/common"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

func idToken(t *testing.T, uid, name string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokens.Claims{UserID: uid, Name: name}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

/*************
 * Fake identity stub
 *************/

type fakeIdentity struct {
	mu      sync.Mutex
	calls   []string
	lastReq map[string]map[string]any
	resp    map[string]map[string]any
	errs    map[string]error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		lastReq: map[string]map[string]any{},
		resp:    map[string]map[string]any{},
		errs:    map[string]error{},
	}
}

func (f *fakeIdentity) Call(_ context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	f.lastReq[method] = req
	if err := f.errs[method]; err != nil {
		return nil, err
	}
	return structpb.NewStruct(f.resp[method])
}

type memKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	delErr error
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, k string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[k], nil
}
func (m *memKV) Set(_ context.Context, k string, v []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[k] = v
	return nil
}
func (m *memKV) SetMany(ctx context.Context, values map[string][]byte) error {
	for k, v := range values {
		_ = m.Set(ctx, k, v)
	}
	return nil
}
func (m *memKV) Delete(_ context.Context, k string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, k)
	return nil
}

func newUnitClient(f identityAPI, repo *memKV) *GRPCClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &GRPCClient{
		identity:   f,
		sessions:   repo,
		sessionKey: "auth:session:refresh_token",
		log:        logging.Discard(),
		listeners:  map[int]func(*models.Principal){},
		ctx:        ctx,
		cancel:     cancel,
	}
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := newFakeIdentity()
	f.resp[MethodRefreshToken] = map[string]any{
		"id_token":      idToken(t, "u1", "Ana"),
		"access_token":  "A2",
		"refresh_token": "R2",
	}
	repo := newMemKV()
	c := newUnitClient(f, repo)
	c.accessToken, c.refreshToken = "A1", "R1"

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), FullMethod(MethodUpdateDisplayName), nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "A2", c.accessToken)
	require.Equal(t, "R2", c.refreshToken)
	require.Equal(t, "R1", f.lastReq[MethodRefreshToken]["refresh_token"])
	require.Equal(t, []byte("R2"), repo.data["auth:session:refresh_token"], "rotated refresh token is persisted")
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := newFakeIdentity()
	c := newUnitClient(f, newMemKV())
	c.accessToken = "A1"

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Empty(t, f.calls)
}

func TestInterceptor_RefreshFailureReturnsOriginalError(t *testing.T) {
	f := newFakeIdentity()
	f.errs[MethodRefreshToken] = status.Error(codes.Unauthenticated, "auth/invalid-refresh-token")
	c := newUnitClient(f, newMemKV())
	c.accessToken, c.refreshToken = "A1", "R1"

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	st, _ := status.FromError(err)
	require.Equal(t, common.ErrTokenExpired.Error(), st.Message())
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := newUnitClient(newFakeIdentity(), newMemKV())
	c.accessToken, c.refreshToken = "X", "R"
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Internal, "boom")
	}
	require.Error(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))

	invoker = func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	require.Error(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_RefreshCallPassesThrough(t *testing.T) {
	c := newUnitClient(newFakeIdentity(), newMemKV())
	c.accessToken = "A1"

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), FullMethod(MethodRefreshToken), nil, nil, nil, invoker))
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	require.Nil(t, mapError(nil))

	plain := errors.New("plain")
	require.Same(t, plain, mapError(plain))

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantIs   error
	}{
		{name: "backend code", err: status.Error(codes.InvalidArgument, "auth/wrong-password"), wantCode: autherr.CodeWrongPassword},
		{name: "backend code keeps unauthorized", err: status.Error(codes.Unauthenticated, "auth/user-disabled"), wantCode: autherr.CodeUserDisabled, wantIs: ErrUnauthorized},
		{name: "unauthenticated", err: status.Error(codes.Unauthenticated, "x"), wantIs: ErrUnauthorized},
		{name: "permission denied", err: status.Error(codes.PermissionDenied, "x"), wantIs: ErrUnauthorized},
		{name: "unavailable", err: status.Error(codes.Unavailable, "x"), wantCode: autherr.CodeNetworkFailed, wantIs: ErrUnavailable},
		{name: "deadline", err: status.Error(codes.DeadlineExceeded, "x"), wantCode: autherr.CodeNetworkFailed, wantIs: ErrUnavailable},
		{name: "rate limited", err: status.Error(codes.ResourceExhausted, "x"), wantCode: autherr.CodeTooManyRequests},
		{name: "canceled", err: status.Error(codes.Canceled, "x"), wantCode: autherr.CodeRequestCanceled},
		{name: "internal", err: status.Error(codes.Internal, "x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			require.Equal(t, tt.wantCode, autherr.CodeOf(got))
			if tt.wantIs != nil {
				require.ErrorIs(t, got, tt.wantIs)
			}
		})
	}

	require.ErrorContains(t, mapError(status.Error(codes.Internal, "x")), "rpc error:")
}

/*************
 * Ping tests
 *************/

func TestPing(t *testing.T) {
	f := newFakeIdentity()
	c := newUnitClient(f, newMemKV())

	f.resp[MethodPing] = map[string]any{"status": "OK"}
	require.NoError(t, c.Ping(context.Background()))

	f.resp[MethodPing] = map[string]any{"status": "NOT_OK"}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)

	f.errs[MethodPing] = status.Error(codes.Unavailable, "down")
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

/*************
 * Sign-in / sign-out tests
 *************/

func TestSignInPassword_AdoptsTokensAndNotifies(t *testing.T) {
	f := newFakeIdentity()
	f.resp[MethodSignInPassword] = map[string]any{
		"id_token":      idToken(t, "u1", "Ana"),
		"access_token":  "A",
		"refresh_token": "R",
	}
	repo := newMemKV()
	c := newUnitClient(f, repo)

	var got []*models.Principal
	c.listeners[0] = func(p *models.Principal) { got = append(got, p) }

	p, err := c.SignInPassword(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "u1", p.UID)
	require.Equal(t, "Ana", p.DisplayName)
	require.Equal(t, "ana@example.com", f.lastReq[MethodSignInPassword]["email"])
	require.Equal(t, []byte("R"), repo.data["auth:session:refresh_token"])
	require.Len(t, got, 1)
	require.Equal(t, "u1", got[0].UID)
}

func TestSignInPassword_BadTokenIsRejected(t *testing.T) {
	f := newFakeIdentity()
	f.resp[MethodSignInPassword] = map[string]any{"id_token": "garbage"}
	c := newUnitClient(f, newMemKV())

	_, err := c.SignInPassword(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, common.ErrInvalidToken)
	require.Nil(t, c.principal)
}

func TestSignInWithCredential_SendsNonce(t *testing.T) {
	f := newFakeIdentity()
	f.resp[MethodSignInWithCredential] = map[string]any{"id_token": idToken(t, "apple-1", ""), "access_token": "A"}
	c := newUnitClient(f, newMemKV())

	_, err := c.SignInWithCredential(context.Background(), models.Credential{Provider: models.ProviderApple, IDToken: "t", RawNonce: "n"})
	require.NoError(t, err)
	req := f.lastReq[MethodSignInWithCredential]
	require.Equal(t, "apple", req["provider"])
	require.Equal(t, "n", req["raw_nonce"])
}

func TestSignOut_ClearsEvenOnBackendError(t *testing.T) {
	f := newFakeIdentity()
	f.errs[MethodSignOut] = status.Error(codes.Unavailable, "down")
	repo := newMemKV()
	repo.data["auth:session:refresh_token"] = []byte("R")
	c := newUnitClient(f, repo)
	c.accessToken, c.refreshToken = "A", "R"
	c.principal = &models.Principal{UID: "u1"}

	notified := false
	c.listeners[0] = func(p *models.Principal) { notified = p == nil }

	err := c.SignOut(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.Empty(t, c.accessToken)
	require.Nil(t, c.principal)
	require.NotContains(t, repo.data, "auth:session:refresh_token")
	require.True(t, notified)
}

func TestFetchProfileAndHandleOwner(t *testing.T) {
	f := newFakeIdentity()
	f.resp[MethodGetProfile] = map[string]any{"profile": map[string]any{"name": "Ana", "handle": "ana"}}
	f.resp[MethodGetHandleOwner] = map[string]any{"uid": "u9"}
	c := newUnitClient(f, newMemKV())

	doc, err := c.FetchProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana", doc["name"])

	owner, err := c.HandleOwner(context.Background(), "ana")
	require.NoError(t, err)
	require.Equal(t, "u9", owner)

	f.resp[MethodGetProfile] = map[string]any{"profile": nil}
	doc, err = c.FetchProfile(context.Background(), "u2")
	require.NoError(t, err)
	require.Nil(t, doc)
}
