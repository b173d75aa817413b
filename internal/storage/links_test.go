package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

func seedTestRecord(t *testing.T, store *SQLiteStorage, id, threadID string) {
	t.Helper()
	record := model.Record{
		ID:        id,
		Sender:    "alice@example.com",
		Domain:    "example.com",
		Subject:   "test",
		ThreadID:  threadID,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, store.SaveRecords(context.Background(), []model.Record{record}))
}

func testLink(id, recordID string) *model.Link {
	return &model.Link{
		ID:         id,
		RecordID:   recordID,
		TargetType: model.TargetProposal,
		TargetID:   "prop-1",
		Confidence: 0.95,
		Method:     model.MethodSenderMatch,
	}
}

func TestCreateLink_OneActivePerTargetType(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedTestRecord(t, store, "rec-1", "")

	require.NoError(t, store.CreateLink(ctx, testLink("link-1", "rec-1")))

	// Second active link for the same record and target type must be
	// refused even when it points at a different target.
	second := testLink("link-2", "rec-1")
	second.TargetID = "prop-2"
	err := store.CreateLink(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicateEntry))

	// A different target type coexists.
	contact := testLink("link-3", "rec-1")
	contact.TargetType = model.TargetContact
	contact.TargetID = "contact-1"
	require.NoError(t, store.CreateLink(ctx, contact))
}

func TestUnlink_AllowsRelink(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedTestRecord(t, store, "rec-1", "")

	require.NoError(t, store.CreateLink(ctx, testLink("link-1", "rec-1")))
	require.NoError(t, store.Unlink(ctx, "link-1"))

	_, err := store.GetActiveLink(ctx, "rec-1", model.TargetProposal)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	unlinked, err := store.GetLinkByID(ctx, "link-1")
	require.NoError(t, err)
	assert.False(t, unlinked.Active)
	assert.NotNil(t, unlinked.UnlinkedAt, "history is preserved, not deleted")

	// The invariant only binds active links; a new link may follow.
	relink := testLink("link-2", "rec-1")
	relink.TargetID = "prop-2"
	require.NoError(t, store.CreateLink(ctx, relink))

	// Unlinking twice is an error: the link is no longer active.
	err = store.Unlink(ctx, "link-1")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGetActiveLinkByThread(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	seedTestRecord(t, store, "rec-1", "thread-9")
	seedTestRecord(t, store, "rec-2", "thread-9")
	seedTestRecord(t, store, "rec-3", "other-thread")

	require.NoError(t, store.CreateLink(ctx, testLink("link-1", "rec-1")))

	link, err := store.GetActiveLinkByThread(ctx, "thread-9")
	require.NoError(t, err)
	assert.Equal(t, "link-1", link.ID)

	_, err = store.GetActiveLinkByThread(ctx, "other-thread")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	// An unlinked thread link no longer seeds inheritance.
	require.NoError(t, store.Unlink(ctx, "link-1"))
	_, err = store.GetActiveLinkByThread(ctx, "thread-9")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGetUnresolvedRecords_ExcludesLinkedAndPending(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	seedTestRecord(t, store, "rec-linked", "")
	seedTestRecord(t, store, "rec-pending", "")
	seedTestRecord(t, store, "rec-open", "")

	require.NoError(t, store.CreateLink(ctx, testLink("link-1", "rec-linked")))

	suggestion := &model.Suggestion{
		ID:         "sug-1",
		Type:       model.SuggestionLink,
		RecordID:   "rec-pending",
		TargetType: model.TargetProposal,
		TargetID:   "prop-1",
		Confidence: 0.85,
		Status:     model.SuggestionPending,
	}
	require.NoError(t, store.CreateSuggestion(ctx, suggestion))

	records, err := store.GetUnresolvedRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-open", records[0].ID)
}
