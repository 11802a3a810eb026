package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"community_notifier/internal/app"
	"community_notifier/internal/domain/user"
	"community_notifier/internal/infra/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeBroadcaster struct {
	authErr      error
	broadcastErr error
	sent         int
	gotCaller    string
	gotReq       app.BroadcastRequest
}

func (f *fakeBroadcaster) Authorize(ctx context.Context, callerID string) (*user.User, error) {
	f.gotCaller = callerID
	if f.authErr != nil {
		return nil, f.authErr
	}
	return &user.User{ID: callerID, Role: "admin"}, nil
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, callerID string, req app.BroadcastRequest) (int, error) {
	f.gotCaller = callerID
	f.gotReq = req
	if f.broadcastErr != nil {
		return 0, f.broadcastErr
	}
	return f.sent, nil
}

type fakeRunner struct {
	calls  int
	ctxErr error
}

func (f *fakeRunner) RunNow(ctx context.Context) app.RunSummary {
	f.calls++
	f.ctxErr = ctx.Err()
	return app.RunSummary{Day: "2024-01-10", Active: 3, Created: 3, PerCollection: map[string]int{"schedules": 3}}
}

func newTestRouter(b *fakeBroadcaster, r *fakeRunner) http.Handler {
	h := NewHandler(b, r, logger.Discard())
	return NewRouter(h, NewTokenVerifier(testSecret), nil, logger.Discard())
}

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	rec := doRequest(newTestRouter(&fakeBroadcaster{}, &fakeRunner{}), http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestBroadcast_Success(t *testing.T) {
	b := &fakeBroadcaster{sent: 7}
	router := newTestRouter(b, &fakeRunner{})
	token := signToken(t, testSecret, "admin-1", time.Hour)

	rec := doRequest(router, http.MethodPost, "/api/v1/notifications/broadcast", token, map[string]interface{}{
		"title": "Kerja bakti",
		"body":  "Sunday 07:00",
		"role":  "resident",
		"data":  map[string]interface{}{"screen": "announcements", "id": 42},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":7}`, rec.Body.String())
	assert.Equal(t, "admin-1", b.gotCaller)
	assert.Equal(t, "Kerja bakti", b.gotReq.Title)
	assert.Equal(t, "resident", b.gotReq.Role)
	assert.Equal(t, map[string]string{"screen": "announcements", "id": "42"}, b.gotReq.Data)
}

func TestBroadcast_Authentication(t *testing.T) {
	router := newTestRouter(&fakeBroadcaster{}, &fakeRunner{})

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong secret", signToken(t, "other-secret", "admin-1", time.Hour)},
		{"expired", signToken(t, testSecret, "admin-1", -time.Minute)},
		{"no subject", signToken(t, testSecret, "", time.Hour)},
		{"garbage", "not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, "/api/v1/notifications/broadcast", tc.token, map[string]string{"title": "t", "body": "b"})

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, kindUnauthenticated, decodeError(t, rec).Kind)
		})
	}
}

func TestBroadcast_ErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{app.ErrPermissionDenied, http.StatusForbidden, kindPermissionDenied},
		{app.ErrInvalidBroadcast, http.StatusBadRequest, kindInvalidArgument},
		{app.ErrUnauthenticated, http.StatusUnauthorized, kindUnauthenticated},
		{fmt.Errorf("failed to resolve audience: %w", errors.New("db down")), http.StatusInternalServerError, kindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.wantKind, func(t *testing.T) {
			router := newTestRouter(&fakeBroadcaster{broadcastErr: tc.err}, &fakeRunner{})
			token := signToken(t, testSecret, "u1", time.Hour)

			rec := doRequest(router, http.MethodPost, "/api/v1/notifications/broadcast", token, map[string]string{"title": "t", "body": "b"})

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantKind, decodeError(t, rec).Kind)
		})
	}
}

func TestBroadcast_MalformedBody(t *testing.T) {
	router := newTestRouter(&fakeBroadcaster{}, &fakeRunner{})
	token := signToken(t, testSecret, "admin-1", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/broadcast", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, kindInvalidArgument, decodeError(t, rec).Kind)
}

func TestBroadcast_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&fakeBroadcaster{}, &fakeRunner{})
	token := signToken(t, testSecret, "admin-1", time.Hour)

	rec := doRequest(router, http.MethodGet, "/api/v1/notifications/broadcast", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/v1/jobs/daily", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/v1/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunDaily(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(&fakeBroadcaster{}, runner)
	token := signToken(t, testSecret, "admin-1", time.Hour)

	rec := doRequest(router, http.MethodPost, "/api/v1/jobs/daily", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
	var summary app.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "2024-01-10", summary.Day)
	assert.Equal(t, 3, summary.Created)
}

func TestRunDaily_SurvivesClientDisconnect(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(&fakeBroadcaster{}, runner)
	token := signToken(t, testSecret, "admin-1", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/daily", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 1, runner.calls)
	assert.NoError(t, runner.ctxErr)
}

func TestRunDaily_NonAdmin(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(&fakeBroadcaster{authErr: app.ErrPermissionDenied}, runner)
	token := signToken(t, testSecret, "warga-1", time.Hour)

	rec := doRequest(router, http.MethodPost, "/api/v1/jobs/daily", token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, kindPermissionDenied, decodeError(t, rec).Kind)
	assert.Zero(t, runner.calls)
}

func TestVerify_RejectsOtherSigningMethods(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenVerifier(testSecret).Verify(signed)
	assert.Error(t, err)
}
