package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moodgraph/backend/internal/domain"
	"github.com/moodgraph/backend/internal/middleware"
	"github.com/moodgraph/backend/pkg/response"
)

// fakeFollowRepo is a minimal in-memory domain.FollowRepository for
// handler tests.
type fakeFollowRepo struct {
	mu        sync.Mutex
	requests  map[uuid.UUID]*domain.FollowRequest
	edges     map[[2]uuid.UUID]bool
	createErr error
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{
		requests: make(map[uuid.UUID]*domain.FollowRequest),
		edges:    make(map[[2]uuid.UUID]bool),
	}
}

func (s *fakeFollowRepo) PendingRequestsTo(_ context.Context, userID uuid.UUID) ([]*domain.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.FollowRequest{}
	for _, req := range s.requests {
		if req.ToUserID == userID && req.Status == domain.StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *fakeFollowRepo) PendingRequestBetween(_ context.Context, fromID, toID uuid.UUID) (*domain.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.requests {
		if req.FromUserID == fromID && req.ToUserID == toID && req.Status == domain.StatusPending {
			return req, nil
		}
	}
	return nil, nil
}

func (s *fakeFollowRepo) RequestByID(_ context.Context, id uuid.UUID) (*domain.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *fakeFollowRepo) CreateRequest(_ context.Context, fromID, toID uuid.UUID) (*domain.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return nil, s.createErr
	}

	req := &domain.FollowRequest{
		ID:         uuid.New(),
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	s.requests[req.ID] = req
	return req, nil
}

func (s *fakeFollowRepo) ResolveRequest(_ context.Context, id uuid.UUID, outcome domain.RequestStatus) (*domain.FollowerEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if req.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyResolved
	}
	req.Status = outcome
	if outcome != domain.StatusAccepted {
		return nil, nil
	}
	s.edges[[2]uuid.UUID{req.FromUserID, req.ToUserID}] = true
	return &domain.FollowerEdge{FollowerID: req.FromUserID, FollowedID: req.ToUserID}, nil
}

func (s *fakeFollowRepo) DeleteRequest(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil
	}
	if req.Status != domain.StatusPending {
		return domain.ErrAlreadyResolved
	}
	delete(s.requests, id)
	return nil
}

func (s *fakeFollowRepo) EdgeExists(_ context.Context, followerID, followedID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges[[2]uuid.UUID{followerID, followedID}], nil
}

func (s *fakeFollowRepo) FollowerIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{}, nil
}

func newTestFollowHandler(repo domain.FollowRepository) *FollowHandler {
	svc := domain.NewFollowGraphService(context.Background(), repo, nil, zap.NewNop())
	return NewFollowHandler(svc, nil, zap.NewNop())
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) {
	t.Helper()

	var envelope response.Response
	envelope.Data = data
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got error %+v", envelope.Error)
	}
}

func TestSendRequestHandler(t *testing.T) {
	repo := newFakeFollowRepo()
	handler := newTestFollowHandler(repo)

	alice := uuid.New()
	bob := uuid.New()

	body, _ := json.Marshal(map[string]string{"to_user_id": bob.String()})
	req := authedRequest(http.MethodPost, "/api/v1/follows/requests", body, alice)
	rec := httptest.NewRecorder()

	handler.SendRequest(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var created domain.FollowRequest
	decodeEnvelope(t, rec, &created)
	if created.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %q", created.Status)
	}
	if _, ok := repo.requests[created.ID]; !ok {
		t.Fatal("expected request to be stored")
	}
}

func TestSendRequestHandlerFailures(t *testing.T) {
	alice := uuid.New()

	cases := []struct {
		name   string
		body   string
		userID uuid.UUID
		authed bool
		status int
	}{
		{
			name:   "unauthenticated",
			body:   `{"to_user_id":"` + uuid.New().String() + `"}`,
			status: http.StatusUnauthorized,
		},
		{
			name:   "malformed body",
			body:   `{`,
			userID: alice,
			authed: true,
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid target id",
			body:   `{"to_user_id":"not-a-uuid"}`,
			userID: alice,
			authed: true,
			status: http.StatusBadRequest,
		},
		{
			name:   "self follow",
			body:   `{"to_user_id":"` + alice.String() + `"}`,
			userID: alice,
			authed: true,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestFollowHandler(newFakeFollowRepo())

			var req *http.Request
			if tc.authed {
				req = authedRequest(http.MethodPost, "/api/v1/follows/requests", []byte(tc.body), tc.userID)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/api/v1/follows/requests", bytes.NewReader([]byte(tc.body)))
			}
			rec := httptest.NewRecorder()

			handler.SendRequest(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestSendRequestHandlerUnknownTarget(t *testing.T) {
	repo := newFakeFollowRepo()
	repo.createErr = domain.ErrUserNotFound
	handler := newTestFollowHandler(repo)

	body, _ := json.Marshal(map[string]string{"to_user_id": uuid.New().String()})
	rec := httptest.NewRecorder()
	handler.SendRequest(rec, authedRequest(http.MethodPost, "/api/v1/follows/requests", body, uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSendRequestHandlerDuplicate(t *testing.T) {
	repo := newFakeFollowRepo()
	handler := newTestFollowHandler(repo)

	alice := uuid.New()
	bob := uuid.New()
	body, _ := json.Marshal(map[string]string{"to_user_id": bob.String()})

	rec := httptest.NewRecorder()
	handler.SendRequest(rec, authedRequest(http.MethodPost, "/api/v1/follows/requests", body, alice))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request: expected %d got %d", http.StatusCreated, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.SendRequest(rec, authedRequest(http.MethodPost, "/api/v1/follows/requests", body, alice))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate request: expected %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestAcceptHandler(t *testing.T) {
	repo := newFakeFollowRepo()
	handler := newTestFollowHandler(repo)

	alice := uuid.New()
	bob := uuid.New()
	request, err := repo.CreateRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/follows/requests/"+request.ID.String()+"/accept", nil, bob)
	req = withURLParam(req, "id", request.ID.String())
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var edge domain.FollowerEdge
	decodeEnvelope(t, rec, &edge)
	if edge.FollowerID != alice || edge.FollowedID != bob {
		t.Fatalf("edge has wrong direction: %+v", edge)
	}

	// Second accept of the same request conflicts.
	req = authedRequest(http.MethodPost, "/api/v1/follows/requests/"+request.ID.String()+"/accept", nil, bob)
	req = withURLParam(req, "id", request.ID.String())
	rec = httptest.NewRecorder()

	handler.Accept(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestAcceptHandlerWrongReceiver(t *testing.T) {
	repo := newFakeFollowRepo()
	handler := newTestFollowHandler(repo)

	request, err := repo.CreateRequest(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/follows/requests/"+request.ID.String()+"/accept", nil, uuid.New())
	req = withURLParam(req, "id", request.ID.String())
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
}

func TestAcceptHandlerUnknownRequest(t *testing.T) {
	handler := newTestFollowHandler(newFakeFollowRepo())

	id := uuid.New().String()
	req := authedRequest(http.MethodPost, "/api/v1/follows/requests/"+id+"/accept", nil, uuid.New())
	req = withURLParam(req, "id", id)
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestDeclineHandler(t *testing.T) {
	repo := newFakeFollowRepo()
	handler := newTestFollowHandler(repo)

	alice := uuid.New()
	bob := uuid.New()
	request, err := repo.CreateRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/follows/requests/"+request.ID.String()+"/decline", nil, bob)
	req = withURLParam(req, "id", request.ID.String())
	rec := httptest.NewRecorder()

	handler.Decline(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}

	if _, ok := repo.requests[request.ID]; ok {
		t.Fatal("expected request to be removed")
	}

	// Declining again is idempotent.
	req = authedRequest(http.MethodPost, "/api/v1/follows/requests/"+request.ID.String()+"/decline", nil, bob)
	req = withURLParam(req, "id", request.ID.String())
	rec = httptest.NewRecorder()

	handler.Decline(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
}

func TestListIncomingHandler(t *testing.T) {
	repo := newFakeFollowRepo()
	handler := newTestFollowHandler(repo)

	bob := uuid.New()
	if _, err := repo.CreateRequest(context.Background(), uuid.New(), bob); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	req := authedRequest(http.MethodGet, "/api/v1/follows/requests", nil, bob)
	rec := httptest.NewRecorder()

	handler.ListIncoming(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var listed []domain.FollowRequest
	decodeEnvelope(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 request, got %d", len(listed))
	}
}
