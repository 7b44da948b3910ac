package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/suPer8Hu/pairhub/internal/common"
	"github.com/suPer8Hu/pairhub/internal/observe"
	"github.com/suPer8Hu/pairhub/internal/staging"
)

type Service struct {
	pairs     *PairStore
	summaries *SummaryStore
	staged    staging.Store
	obs       *observe.Observer
}

func NewService(pairs *PairStore, summaries *SummaryStore, staged staging.Store, obs *observe.Observer) *Service {
	return &Service{pairs: pairs, summaries: summaries, staged: staged, obs: obs}
}

// NewConversationID returns a single-use staging id, "conv_temp_<ulid>".
func NewConversationID() (string, error) {
	id, err := common.NewULID()
	if err != nil {
		return "", err
	}
	return "conv_temp_" + strings.ToLower(id), nil
}

// CreatePair finds or creates the pair for two devices.
func (s *Service) CreatePair(ctx context.Context, deviceA, deviceB any) (*DevicePair, error) {
	ctx, span := s.obs.StartSpan(ctx, "conversation.CreatePair")
	p, err := s.pairs.FindOrCreate(ctx, deviceA, deviceB)
	observe.EndSpan(span, err)
	if err != nil {
		s.obs.Log().Error().Err(err).Msg("create device pair failed")
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPairs(ctx context.Context) []DevicePair {
	return s.pairs.ListAll(ctx)
}

func (s *Service) GetPair(ctx context.Context, identifier string) (*DevicePair, bool) {
	return s.pairs.GetByIdentifier(ctx, identifier)
}

// Submit runs one submission: validate, resolve the pair, stage the content,
// persist the summary. Pairs are never created here. Every failure, panics
// included, comes back as *Error.
func (s *Service) Submit(ctx context.Context, pairIdentifier string, data any) (res *SubmitResult, err error) {
	ctx, span := s.obs.StartSpan(ctx, "conversation.Submit")
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = newError(ErrorInternal, "Internal server error", fmt.Errorf("panic: %v", r))
			s.obs.Log().Error().Str("pair", pairIdentifier).Err(err).Msg("submission panicked")
		}
		observe.EndSpan(span, err)
	}()

	// 1) validate
	v := Validate(data)
	if !v.Valid {
		return nil, &Error{
			Code:   ErrorInvalidInput,
			Reason: "Invalid JSON format: " + strings.Join(v.Errors, ", "),
			Errors: v.Errors,
		}
	}
	payload, err := DecodePayload(data)
	if err != nil {
		e := newError(ErrorInvalidInput, "Invalid JSON format", err)
		e.Errors = []string{err.Error()}
		return nil, e
	}

	// 2) resolve pair
	pair, ok := s.pairs.GetByIdentifier(ctx, pairIdentifier)
	if !ok {
		return nil, newError(ErrorPairNotFound, "Device pair not found", ErrPairNotFound)
	}

	// 3) stage content
	convID, err := NewConversationID()
	if err != nil {
		return nil, newError(ErrorInternal, "failed to allocate conversation id", err)
	}
	body, err := json.Marshal(payload.Content)
	if err != nil {
		return nil, newError(ErrorInternal, "failed to encode content", err)
	}
	if err := s.staged.Put(ctx, convID, body); err != nil {
		return nil, newError(ErrorInternal, "failed to stage content", err)
	}

	// 4) persist summary
	summaryID, err := s.summaries.Save(ctx, pair.ID, payload.Summary)
	if err != nil {
		if _, derr := s.staged.Delete(ctx, convID); derr != nil {
			s.obs.Log().Warn().Str("conversation_id", convID).Err(derr).Msg("drop staged content failed")
		}
		return nil, newError(ErrorInternal, "failed to save summary", err)
	}

	s.obs.Log().Info().
		Str("pair_id", pair.ID).
		Str("conversation_id", convID).
		Int("messages", len(payload.Content.Messages)).
		Msg("conversation accepted")

	return &SubmitResult{
		PairID:             pair.ID,
		TempPairID:         pair.TempPairID,
		TempConversationID: convID,
		SummaryID:          summaryID,
	}, nil
}

// LatestSummaries resolves any pair identifier and returns its newest summaries.
func (s *Service) LatestSummaries(ctx context.Context, pairIdentifier string, limit int) ([]Summary, error) {
	ctx, span := s.obs.StartSpan(ctx, "conversation.LatestSummaries")
	defer span.End()

	pair, ok := s.pairs.GetByIdentifier(ctx, pairIdentifier)
	if !ok {
		return nil, newError(ErrorPairNotFound, "Device pair not found", ErrPairNotFound)
	}
	out, err := s.summaries.GetLatest(ctx, pair.ID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, newError(ErrorInternal, "failed to load summaries", err)
	}
	return out, nil
}

// LatestSummary returns only the newest summary for any pair identifier.
func (s *Service) LatestSummary(ctx context.Context, pairIdentifier string) (*Summary, bool) {
	pair, ok := s.pairs.GetByIdentifier(ctx, pairIdentifier)
	if !ok {
		return nil, false
	}
	return s.summaries.Latest(ctx, pair.ID)
}

// DeleteSummary removes one summary by id.
func (s *Service) DeleteSummary(ctx context.Context, id uint64) (bool, error) {
	return s.summaries.Delete(ctx, id)
}

// GetStaged looks up staged content without removing it.
func (s *Service) GetStaged(ctx context.Context, conversationID string) (*Content, bool) {
	b, err := s.staged.Get(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, staging.ErrNotFound) {
			s.obs.Log().Warn().Str("conversation_id", conversationID).Err(err).Msg("staged content lookup failed")
		}
		return nil, false
	}
	var c Content
	if err := json.Unmarshal(b, &c); err != nil {
		s.obs.Log().Warn().Str("conversation_id", conversationID).Err(err).Msg("staged content is corrupt")
		return nil, false
	}
	return &c, true
}

// ClearStaged removes staged content and reports whether it existed.
func (s *Service) ClearStaged(ctx context.Context, conversationID string) bool {
	existed, err := s.staged.Delete(ctx, conversationID)
	if err != nil {
		s.obs.Log().Warn().Str("conversation_id", conversationID).Err(err).Msg("clear staged content failed")
		return false
	}
	return existed
}
