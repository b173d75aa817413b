package match_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/match"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/storage"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/testutil"
)

func newMatcher(store *storage.SQLiteStorage) *match.Matcher {
	return match.NewMatcher(store, match.NewCache(store, match.DefaultCacheTTL))
}

func record(id string) model.Record {
	return model.Record{
		ID:        id,
		Sender:    "alice@widgets.example",
		Domain:    "widgets.example",
		Subject:   "hello",
		Timestamp: time.Now().UTC(),
	}
}

func seedPattern(t *testing.T, store *storage.SQLiteStorage, patternType model.PatternType, key, targetID string, confidence float64) *model.Pattern {
	t.Helper()
	pattern := &model.Pattern{
		Type:       patternType,
		Key:        key,
		TargetType: model.TargetProposal,
		TargetID:   targetID,
		Confidence: confidence,
	}
	require.NoError(t, store.UpsertPattern(context.Background(), pattern))
	return pattern
}

func TestMatcher_ThreadInheritance(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	testutil.SeedTargets(t, store, model.Target{Type: model.TargetProposal, ID: "prop-1"})

	earlier := record("rec-1")
	earlier.ThreadID = "thread-1"
	later := record("rec-2")
	later.ThreadID = "thread-1"
	testutil.SeedRecords(t, store, earlier, later)

	require.NoError(t, store.CreateLink(ctx, &model.Link{
		ID:         "link-1",
		RecordID:   "rec-1",
		TargetType: model.TargetProposal,
		TargetID:   "prop-1",
		Confidence: 0.98,
		Method:     model.MethodCodeInSubject,
	}))

	candidate, err := newMatcher(store).Match(ctx, later)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, model.MethodThreadInheritance, candidate.Method)
	assert.Equal(t, "prop-1", candidate.Target.ID)
	assert.Equal(t, match.ThreadConfidence, candidate.Confidence)
	assert.Empty(t, candidate.PatternIDs, "deterministic tiers carry no pattern")
}

func TestMatcher_CodeToken(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	testutil.SeedTargets(t, store,
		model.Target{Type: model.TargetProposal, ID: "prop-1", Code: "25 BK-069"})

	rec := record("rec-1")
	rec.Subject = "Re: 25 BK-069 Bahnhofkirche window quote"
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, model.MethodCodeInSubject, candidate.Method)
	assert.Equal(t, "prop-1", candidate.Target.ID)
	assert.Equal(t, match.CodeConfidence, candidate.Confidence)
}

func TestMatcher_CodeTokenUnknownCodeFallsThrough(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	// The code does not resolve, but a sender pattern does: an unknown
	// token must not abort the pipeline.
	seedPattern(t, store, model.PatternSender, "alice@widgets.example", "prop-2", 0.85)

	rec := record("rec-1")
	rec.Subject = "Re: 25 XX-999 unknown code"
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, model.MethodSenderMatch, candidate.Method)
	assert.Equal(t, "prop-2", candidate.Target.ID)
}

func TestMatcher_TierPriority(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Sender, domain and keyword patterns all match, each pointing at a
	// different target. The sender tier runs first and wins outright.
	sender := seedPattern(t, store, model.PatternSender, "alice@widgets.example", "prop-sender", 0.82)
	seedPattern(t, store, model.PatternDomain, "widgets.example", "prop-domain", 0.99)
	seedPattern(t, store, model.PatternKeyword, "hello", "prop-keyword", 0.99)

	rec := record("rec-1")
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, model.MethodSenderMatch, candidate.Method)
	assert.Equal(t, "prop-sender", candidate.Target.ID)
	assert.Equal(t, []int64{sender.ID}, candidate.PatternIDs)
}

func TestMatcher_TieBreakWithinTier(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	low := seedPattern(t, store, model.PatternSender, "alice@widgets.example", "prop-low", 0.70)
	high := seedPattern(t, store, model.PatternSender, "alice@widgets.example", "prop-high", 0.90)
	_ = low

	rec := record("rec-1")
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "prop-high", candidate.Target.ID)
	assert.Equal(t, []int64{high.ID}, candidate.PatternIDs)
}

func TestMatcher_CaseInsensitiveSender(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	seedPattern(t, store, model.PatternSender, "Alice@Widgets.Example", "prop-1", 0.85)

	rec := record("rec-1")
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "prop-1", candidate.Target.ID)
}

func TestMatcher_KeywordInBody(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	seedPattern(t, store, model.PatternKeyword, "bahnhofkirche", "prop-1", 0.75)

	rec := record("rec-1")
	rec.Sender = "stranger@elsewhere.example"
	rec.Domain = "elsewhere.example"
	rec.Body = "The Bahnhofkirche scaffolding goes up next week."
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, model.MethodKeywordMatch, candidate.Method)
	assert.Equal(t, "prop-1", candidate.Target.ID)
}

func TestMatcher_NoMatch(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	rec := record("rec-1")
	rec.Sender = "unknown@nowhere.example"
	rec.Domain = "nowhere.example"
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err, "no match is a classification, not an error")
	assert.Nil(t, candidate)
}

func TestMatcher_InactivePatternsIgnored(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	pattern := seedPattern(t, store, model.PatternSender, "alice@widgets.example", "prop-1", 0.90)
	require.NoError(t, store.DeactivatePattern(ctx, pattern.ID))

	rec := record("rec-1")
	testutil.SeedRecords(t, store, rec)

	candidate, err := newMatcher(store).Match(ctx, rec)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}
