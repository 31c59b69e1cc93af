package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeline/internal/models"
)

// ScoreLister lists candidate final scores for a date window. Only the
// historical backfill tooling uses it; the live grading path fetches by
// exact identifier and never goes near name matching.
type ScoreLister interface {
	ListFinalScores(ctx context.Context, sport models.Sport) ([]*models.FinalScore, error)
}

// Backfiller resolves external identifiers for legacy picks that predate
// stable provider ids, using fuzzy team-name matching. It writes nothing
// itself: it emits the matched identifier so an operator can backfill it and
// let the normal grading sweep pick the event up.
type Backfiller struct {
	lister ScoreLister
	logger *logrus.Logger
}

// NewBackfiller creates a backfill matcher
func NewBackfiller(lister ScoreLister, logger *logrus.Logger) *Backfiller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Backfiller{lister: lister, logger: logger}
}

// MatchExternalID finds the provider event whose team names best match the
// pick's teams. It requires an unambiguous best match; anything ambiguous is
// an error, not a guess.
func (b *Backfiller) MatchExternalID(ctx context.Context, pick *models.PublishedPick) (string, error) {
	candidates, err := b.lister.ListFinalScores(ctx, pick.Sport)
	if err != nil {
		return "", fmt.Errorf("failed to list candidate scores: %w", err)
	}

	bestScore := 0.0
	bestID := ""
	secondBest := 0.0

	for _, c := range candidates {
		score := (nameSimilarity(pick.HomeTeamID, c.HomeTeamID) + nameSimilarity(pick.AwayTeamID, c.AwayTeamID)) / 2
		if score > bestScore {
			secondBest = bestScore
			bestScore = score
			bestID = c.ProviderEventID
		} else if score > secondBest {
			secondBest = score
		}
	}

	if bestScore < 0.8 {
		return "", fmt.Errorf("no candidate matched pick %s (best similarity %.2f)", pick.ID, bestScore)
	}
	if bestScore-secondBest < 0.1 {
		return "", fmt.Errorf("ambiguous match for pick %s: best %.2f vs runner-up %.2f", pick.ID, bestScore, secondBest)
	}

	b.logger.WithFields(logrus.Fields{
		"pick_id":           pick.ID,
		"provider_event_id": bestID,
		"similarity":        bestScore,
	}).Info("Backfill match found")

	return bestID, nil
}

// nameSimilarity scores normalized token overlap between two team
// identifiers
func nameSimilarity(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	matched := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			matched++
		}
	}

	union := len(ta) + len(tb) - matched
	return float64(matched) / float64(union)
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}) {
		out[t] = struct{}{}
	}
	return out
}
