package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	creditssvc "github.com/humapedia/humapedia/internal/services/credits"
	facesvc "github.com/humapedia/humapedia/internal/services/facesearch"
	"github.com/humapedia/humapedia/internal/transport/http/dto"
	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

type faceCreditStub struct {
	balance    int
	cost       int
	calls      int
	lastUserID string
}

func (c *faceCreditStub) FaceSearchCost() int { return c.cost }

func (c *faceCreditStub) Balance(_ context.Context, userID string) (model.CreditAccount, error) {
	return model.CreditAccount{UserID: userID, Credits: c.balance}, nil
}

func (c *faceCreditStub) ReserveFaceSearch(_ context.Context, userID, description string) (model.Usage, int, error) {
	c.calls++
	c.lastUserID = userID
	if c.balance < c.cost {
		return model.Usage{}, 0, creditssvc.ErrInsufficientCredits
	}
	c.balance -= c.cost
	return model.Usage{
		ID:          fmt.Sprintf("usage-%d", c.calls),
		UserID:      userID,
		Type:        model.SearchTypeFace,
		CreditsUsed: c.cost,
		Description: description,
	}, c.balance, nil
}

func (c *faceCreditStub) RefundFaceSearch(_ context.Context, usage model.Usage) error {
	c.balance += usage.CreditsUsed
	return nil
}

type faceLimiterStub struct {
	allowed    bool
	retryAfter int64
}

func (l *faceLimiterStub) AllowFaceSearch(_ context.Context, _ string) (int64, bool, error) {
	if l.allowed {
		return 0, true, nil
	}
	return l.retryAfter, false, nil
}

func newFaceSearchHandler(t *testing.T, credits *faceCreditStub, limiter facesvc.RateLimiter) *FaceSearchHandler {
	t.Helper()

	face := facesvc.NewService(
		&searchProfileStoreStub{profiles: seedProfiles()},
		credits,
		facesvc.NewSimulatedInferenceProvider(0),
		limiter,
		nil,
		facesvc.Config{ProviderTimeout: time.Second},
		zap.NewNop(),
	)

	return NewFaceSearchHandler(face, newHistoryService(t), zap.NewNop())
}

func faceSearchBody() string {
	image := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
	return fmt.Sprintf(`{"image":%q}`, image)
}

func TestFaceSearchHandlerReturnsMatches(t *testing.T) {
	credits := &faceCreditStub{balance: 10, cost: 3}
	handler := newFaceSearchHandler(t, credits, &faceLimiterStub{allowed: true})

	req := httptest.NewRequest(http.MethodPost, "/face-search", strings.NewReader(faceSearchBody()))
	req.Header.Set("X-User-ID", "u1")

	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, body %s", rr.Code, rr.Body.String())
	}

	var payload dto.FaceSearchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Matches) != 3 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Credits.Used != 3 || payload.Credits.Remaining != 7 {
		t.Fatalf("unexpected credits block: %+v", payload.Credits)
	}
	if payload.Analysis.TotalMatches != 3 || payload.Analysis.ConfidenceThreshold != 0.6 || payload.Analysis.ProcessingTime == "" {
		t.Fatalf("unexpected analysis block: %+v", payload.Analysis)
	}
	if payload.Matches[0].Confidence != 0.89 {
		t.Fatalf("expected highest confidence first, got %+v", payload.Matches[0])
	}
}

func TestFaceSearchHandlerAcceptsUserIDInBody(t *testing.T) {
	credits := &faceCreditStub{balance: 10, cost: 3}
	handler := newFaceSearchHandler(t, credits, &faceLimiterStub{allowed: true})

	image := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
	body := fmt.Sprintf(`{"user_id":"u7","image":%q}`, image)
	req := httptest.NewRequest(http.MethodPost, "/face-search", strings.NewReader(body))

	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if credits.lastUserID != "u7" {
		t.Fatalf("body user id not honored, reserved for %q", credits.lastUserID)
	}
}

func TestFaceSearchHandlerPaymentRequired(t *testing.T) {
	credits := &faceCreditStub{balance: 2, cost: 3}
	handler := newFaceSearchHandler(t, credits, &faceLimiterStub{allowed: true})

	req := httptest.NewRequest(http.MethodPost, "/face-search", strings.NewReader(faceSearchBody()))
	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusPaymentRequired)
	}

	var payload httperrors.InsufficientCreditsError
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "INSUFFICIENT_CREDITS" || payload.Required != 3 || payload.Available != 2 {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestFaceSearchHandlerRateLimited(t *testing.T) {
	credits := &faceCreditStub{balance: 10, cost: 3}
	handler := newFaceSearchHandler(t, credits, &faceLimiterStub{allowed: false, retryAfter: 9})

	req := httptest.NewRequest(http.MethodPost, "/face-search", strings.NewReader(faceSearchBody()))
	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}

	var payload httperrors.RateLimitError
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "RATE_LIMITED" || payload.RetryAfterSec != 9 {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestFaceSearchHandlerRejectsMissingImage(t *testing.T) {
	credits := &faceCreditStub{balance: 10, cost: 3}
	handler := newFaceSearchHandler(t, credits, &faceLimiterStub{allowed: true})

	req := httptest.NewRequest(http.MethodPost, "/face-search", strings.NewReader(`{"image":""}`))
	rr := httptest.NewRecorder()
	handler.Search(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
