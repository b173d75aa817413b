package suggest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/handler"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/match"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/service"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/storage"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/suggest"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/testutil"
)

type recordingObserver struct {
	settled []settledCall
}

type settledCall struct {
	suggestionID string
	correct      bool
}

func (o *recordingObserver) SuggestionSettled(_ context.Context, suggestion *model.Suggestion, correct bool) {
	o.settled = append(o.settled, settledCall{suggestionID: suggestion.ID, correct: correct})
}

func setup(t *testing.T) (*storage.SQLiteStorage, *suggest.Manager, *recordingObserver) {
	t.Helper()
	store := testutil.SetupTestDB(t)
	observer := &recordingObserver{}
	manager := suggest.NewManager(store, handler.NewDefaultRegistry(store), observer)
	return store, manager, observer
}

func seedWorld(t *testing.T, store *storage.SQLiteStorage) {
	t.Helper()
	testutil.SeedTargets(t, store,
		model.Target{Type: model.TargetProposal, ID: "prop-1", Code: "25 BK-069"},
		model.Target{Type: model.TargetProposal, ID: "prop-2"})
	testutil.SeedRecords(t, store,
		model.Record{ID: "rec-1", Sender: "alice@widgets.example", Domain: "widgets.example", Timestamp: time.Now().UTC()},
		model.Record{ID: "rec-2", Sender: "alice@widgets.example", Domain: "widgets.example", Timestamp: time.Now().UTC()},
		model.Record{ID: "rec-3", Sender: "alice@widgets.example", Domain: "widgets.example", Timestamp: time.Now().UTC()})
}

func candidateFor(targetID string, confidence float64) match.Candidate {
	return match.Candidate{
		Target:     model.TargetRef{Type: model.TargetProposal, ID: targetID},
		Method:     model.MethodSenderMatch,
		Confidence: confidence,
		PatternIDs: []int64{1},
	}
}

func mustRecord(t *testing.T, store *storage.SQLiteStorage, id string) model.Record {
	t.Helper()
	record, err := store.GetRecord(context.Background(), id)
	require.NoError(t, err)
	return *record
}

func TestManager_CreateIndividual(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	suggestion, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, model.SuggestionPending, suggestion.Status)
	assert.Nil(t, suggestion.BatchID, "individual review suggestions carry no batch")
}

func TestManager_CreateRejectsAtCreationOnValidationFailure(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	// The proposed target does not exist: the dry run fails and nothing
	// reaches the queue.
	suggestion, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-ghost", 0.85), match.BandBatchReview)
	require.NoError(t, err)
	assert.Nil(t, suggestion)

	pending, err := store.ListSuggestions(ctx, service.SuggestionFilter{Status: model.SuggestionPending})
	require.NoError(t, err)
	assert.Empty(t, pending, "a suggestion that cannot apply is never created")
}

func TestManager_CreateDeduplicates(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	first, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)

	second, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "duplicate resolves to the existing pending suggestion")
}

func TestManager_CreateGroupsBatchBySenderAndTarget(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	first, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.85), match.BandBatchReview)
	require.NoError(t, err)
	require.NotNil(t, first.BatchID)

	second, err := manager.Create(ctx, mustRecord(t, store, "rec-2"),
		candidateFor("prop-1", 0.85), match.BandBatchReview)
	require.NoError(t, err)
	require.NotNil(t, second.BatchID)
	assert.Equal(t, *first.BatchID, *second.BatchID, "same sender and target share a batch")

	// A different target gets its own batch even for the same sender.
	other, err := manager.Create(ctx, mustRecord(t, store, "rec-3"),
		candidateFor("prop-2", 0.85), match.BandBatchReview)
	require.NoError(t, err)
	require.NotNil(t, other.BatchID)
	assert.NotEqual(t, *first.BatchID, *other.BatchID)
}

func TestManager_ApproveAppliesAndNotifies(t *testing.T) {
	store, manager, observer := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	created, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)

	suggestion, link, err := manager.Approve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionApplied, suggestion.Status)
	require.NotNil(t, link)
	assert.Equal(t, "prop-1", link.TargetID)

	require.Len(t, observer.settled, 1)
	assert.True(t, observer.settled[0].correct)

	// Approving again is a no-op returning the same link.
	again, sameLink, err := manager.Approve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionApplied, again.Status)
	assert.Equal(t, link.ID, sameLink.ID)
	assert.Len(t, observer.settled, 1, "idempotent re-approval does not re-notify")

	links, err := store.GetLinksByRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, links, 1, "exactly one link regardless of repeat approvals")
}

func TestManager_ApproveFailureSettlesAsFailed(t *testing.T) {
	store, manager, observer := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	created, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)

	// After the suggestion was queued the record got linked elsewhere, so
	// the apply can no longer succeed.
	require.NoError(t, store.CreateLink(ctx, &model.Link{
		ID:         "conflicting",
		RecordID:   "rec-1",
		TargetType: model.TargetProposal,
		TargetID:   "prop-2",
		Confidence: 1.0,
		Method:     model.MethodManual,
	}))

	suggestion, link, err := manager.Approve(ctx, created.ID)
	require.Error(t, err)
	assert.Nil(t, link)
	require.NotNil(t, suggestion)
	assert.Equal(t, model.SuggestionFailed, suggestion.Status, "never stuck at approved")
	assert.NotEmpty(t, suggestion.Evidence, "failure reason is captured")
	assert.NotNil(t, suggestion.DecidedAt)

	stored, err := store.GetSuggestion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionFailed, stored.Status)

	require.Len(t, observer.settled, 1)
	assert.False(t, observer.settled[0].correct)
}

func TestManager_RejectIsIdempotent(t *testing.T) {
	store, manager, observer := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	created, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)

	rejected, err := manager.Reject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionRejected, rejected.Status)

	again, err := manager.Reject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionRejected, again.Status)
	assert.Len(t, observer.settled, 1)

	links, err := store.GetLinksByRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Empty(t, links, "rejection never applies anything")
}

func TestManager_RejectAppliedFails(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	created, err := manager.Create(ctx, mustRecord(t, store, "rec-1"),
		candidateFor("prop-1", 0.70), match.BandIndividualReview)
	require.NoError(t, err)

	_, _, err = manager.Approve(ctx, created.ID)
	require.NoError(t, err)

	_, err = manager.Reject(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
}

func TestManager_BatchMembersHaveIndependentOutcomes(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	members := make([]*model.Suggestion, 0, 3)
	for _, recordID := range []string{"rec-1", "rec-2", "rec-3"} {
		suggestion, err := manager.Create(ctx, mustRecord(t, store, recordID),
			candidateFor("prop-1", 0.85), match.BandBatchReview)
		require.NoError(t, err)
		require.NotNil(t, suggestion.BatchID)
		members = append(members, suggestion)
	}
	batchID := *members[0].BatchID

	// Sabotage the second member: its record acquires a conflicting link
	// before the batch decision lands.
	require.NoError(t, store.CreateLink(ctx, &model.Link{
		ID:         "conflicting",
		RecordID:   "rec-2",
		TargetType: model.TargetProposal,
		TargetID:   "prop-2",
		Confidence: 1.0,
		Method:     model.MethodManual,
	}))

	results, err := manager.ApproveBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Link)
	assert.Error(t, results[1].Err, "the sabotaged member fails alone")
	assert.NoError(t, results[2].Err)
	assert.NotNil(t, results[2].Link, "siblings are unaffected by the failure")

	stored, err := store.GetBatchMembers(ctx, batchID)
	require.NoError(t, err)
	statuses := map[model.SuggestionStatus]int{}
	for _, member := range stored {
		statuses[member.Status]++
	}
	assert.Equal(t, 2, statuses[model.SuggestionApplied])
	assert.Equal(t, 1, statuses[model.SuggestionFailed])
}

func TestManager_RejectBatch(t *testing.T) {
	store, manager, _ := setup(t)
	seedWorld(t, store)
	ctx := context.Background()

	var batchID string
	for _, recordID := range []string{"rec-1", "rec-2"} {
		suggestion, err := manager.Create(ctx, mustRecord(t, store, recordID),
			candidateFor("prop-1", 0.85), match.BandBatchReview)
		require.NoError(t, err)
		batchID = *suggestion.BatchID
	}

	results, err := manager.RejectBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		require.NoError(t, result.Err)
		assert.Equal(t, model.SuggestionRejected, result.Suggestion.Status)
	}
}

func TestManager_ApproveBatchUnknownBatch(t *testing.T) {
	_, manager, _ := setup(t)

	_, err := manager.ApproveBatch(context.Background(), "no-such-batch")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, "sender:alice@widgets.example",
		suggest.GroupKey(model.Record{Sender: "Alice@Widgets.Example", Domain: "widgets.example"}))
	assert.Equal(t, "domain:widgets.example",
		suggest.GroupKey(model.Record{Domain: "Widgets.Example"}))
}
