package facesearch

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	creditssvc "github.com/humapedia/humapedia/internal/services/credits"
	"github.com/humapedia/humapedia/internal/services/search"
)

var ErrValidation = errors.New("validation error")

// Candidates below this confidence are not worth showing.
const confidenceThreshold = 0.6

// InsufficientCreditsError carries the numbers the caller needs to render
// a useful payment-required response.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %ds", e.RetryAfterSec)
}

type ProfileStore interface {
	List(ctx context.Context) ([]model.Profile, error)
}

type CreditService interface {
	FaceSearchCost() int
	Balance(ctx context.Context, userID string) (model.CreditAccount, error)
	ReserveFaceSearch(ctx context.Context, userID, description string) (model.Usage, int, error)
	RefundFaceSearch(ctx context.Context, usage model.Usage) error
}

type RateLimiter interface {
	AllowFaceSearch(ctx context.Context, userID string) (int64, bool, error)
}

type ImageStore interface {
	PutImage(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

type Config struct {
	ProviderTimeout time.Duration
}

type Service struct {
	profiles ProfileStore
	credits  CreditService
	provider InferenceProvider
	limiter  RateLimiter
	images   ImageStore
	cfg      Config
	logger   *zap.Logger

	newKey func() string
}

type Input struct {
	ImageBase64 string
	Filters     model.SearchFilters
}

type Match struct {
	Profile    model.Profile
	Confidence float64
}

type Result struct {
	Matches     []Match
	CreditsUsed int
	// Remaining is the balance after the reservation, read from the same
	// statement that deducted it.
	Remaining           int
	ConfidenceThreshold float64
	ProcessingTime      time.Duration
	ImageKey            string
}

func NewService(profiles ProfileStore, credits CreditService, provider InferenceProvider, limiter RateLimiter, images ImageStore, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 15 * time.Second
	}

	return &Service{
		profiles: profiles,
		credits:  credits,
		provider: provider,
		limiter:  limiter,
		images:   images,
		cfg:      cfg,
		logger:   logger,
		newKey: func() string {
			return "face-uploads/" + uuid.NewString() + ".jpg"
		},
	}
}

// Search runs the paid face search pipeline: validate, rate limit, reserve
// credits, call the provider, filter candidates. Credits are refunded when
// the provider fails after the reservation.
func (s *Service) Search(ctx context.Context, userID string, in Input) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, ErrValidation
	}

	image, err := decodeImage(in.ImageBase64)
	if err != nil {
		return Result{}, err
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowFaceSearch(ctx, userID)
		if err != nil {
			return Result{}, fmt.Errorf("rate limit face search: %w", err)
		}
		if !allowed {
			return Result{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	// The reservation is the balance check. Concurrent searches race on a
	// single atomic deduction, so nobody spends credits they do not have.
	usage, remaining, err := s.credits.ReserveFaceSearch(ctx, userID, "face search")
	if err != nil {
		if errors.Is(err, creditssvc.ErrInsufficientCredits) {
			account, balErr := s.credits.Balance(ctx, userID)
			if balErr != nil {
				s.logger.Warn("read balance for error payload", zap.Error(balErr))
			}
			return Result{}, &InsufficientCreditsError{
				Required:  s.credits.FaceSearchCost(),
				Available: account.Credits,
			}
		}
		return Result{}, err
	}

	imageKey := s.storeImage(ctx, image)

	started := time.Now()
	matches, err := s.identify(ctx, image, in.Filters)
	if err != nil {
		if refundErr := s.credits.RefundFaceSearch(ctx, usage); refundErr != nil {
			s.logger.Error("refund after failed inference",
				zap.String("user_id", userID),
				zap.String("usage_id", usage.ID),
				zap.Error(refundErr),
			)
		}
		return Result{}, fmt.Errorf("identify face: %w", err)
	}

	return Result{
		Matches:             matches,
		CreditsUsed:         usage.CreditsUsed,
		Remaining:           remaining,
		ConfidenceThreshold: confidenceThreshold,
		ProcessingTime:      time.Since(started),
		ImageKey:            imageKey,
	}, nil
}

func (s *Service) identify(ctx context.Context, image []byte, filters model.SearchFilters) ([]Match, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	candidates, err := s.provider.Identify(cctx, image)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	byID := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	// Filters narrow the candidate set after recognition; they never widen it.
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence < confidenceThreshold {
			continue
		}
		profile, ok := byID[c.ProfileID]
		if !ok {
			continue
		}
		if !search.MatchesFilters(profile, filters) {
			continue
		}
		matches = append(matches, Match{Profile: profile, Confidence: c.Confidence})
	}

	return matches, nil
}

// storeImage uploads best-effort. A missing or failing object store does not
// fail the search.
func (s *Service) storeImage(ctx context.Context, image []byte) string {
	if s.images == nil {
		return ""
	}

	key := s.newKey()
	if err := s.images.PutImage(ctx, key, bytes.NewReader(image), int64(len(image)), "image/jpeg"); err != nil {
		s.logger.Warn("store face image", zap.String("key", key), zap.Error(err))
		return ""
	}

	return key
}

func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: image data is required", ErrValidation)
	}

	// Accept data URLs from browser clients.
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: image data is not valid base64", ErrValidation)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", ErrValidation)
	}

	return image, nil
}
