package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/talent-board/internal/types"
)

// fakePostingStore keeps postings and applications in memory and can
// inject failures per method.
type fakePostingStore struct {
	postings map[uuid.UUID]*types.Posting
	apps     map[uuid.UUID]*types.Application

	createErr error
	updateErr error
}

func newFakePostingStore() *fakePostingStore {
	return &fakePostingStore{
		postings: make(map[uuid.UUID]*types.Posting),
		apps:     make(map[uuid.UUID]*types.Application),
	}
}

func (f *fakePostingStore) GetPosting(_ context.Context, id uuid.UUID) (*types.Posting, error) {
	return f.postings[id], nil
}

func (f *fakePostingStore) GetApplication(_ context.Context, postingID, applicationID uuid.UUID) (*types.Application, error) {
	app := f.apps[applicationID]
	if app == nil || app.PostingID != postingID {
		return nil, nil
	}
	return app, nil
}

func (f *fakePostingStore) GetApplicationByApplicant(_ context.Context, postingID, applicantID uuid.UUID) (*types.Application, error) {
	for _, app := range f.apps {
		if app.PostingID == postingID && app.ApplicantID == applicantID {
			return app, nil
		}
	}
	return nil, nil
}

func (f *fakePostingStore) CreateApplication(_ context.Context, app *types.Application) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *app
	f.apps[app.ID] = &copied
	f.postings[app.PostingID].ApplicationsCount++
	return nil
}

func (f *fakePostingStore) UpdateApplicationStatus(_ context.Context, _, applicationID uuid.UUID, status types.ApplicationStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.apps[applicationID].Status = status
	return nil
}

func (f *fakePostingStore) IncrementViews(_ context.Context, postingID uuid.UUID) error {
	f.postings[postingID].Views++
	return nil
}

// fakeUserStore keeps applied-job back-references keyed by user.
type fakeUserStore struct {
	applied map[uuid.UUID][]types.AppliedJob

	appendErr error
	updateErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		applied: make(map[uuid.UUID][]types.AppliedJob),
	}
}

func (f *fakeUserStore) AppendAppliedJob(_ context.Context, userID uuid.UUID, entry types.AppliedJob) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.applied[userID] = append(f.applied[userID], entry)
	return nil
}

func (f *fakeUserStore) GetAppliedJob(_ context.Context, userID, postingID uuid.UUID) (*types.AppliedJob, error) {
	for i := range f.applied[userID] {
		if f.applied[userID][i].PostingID == postingID {
			return &f.applied[userID][i], nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) UpdateAppliedJobStatus(_ context.Context, userID, postingID uuid.UUID, status types.ApplicationStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.applied[userID] {
		if f.applied[userID][i].PostingID == postingID {
			f.applied[userID][i].Status = status
			return nil
		}
	}
	return errors.New("applied job entry not found")
}

// recordingNotifier captures status-change notifications.
type recordingNotifier struct {
	calls []types.ApplicationStatus
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, _ uuid.UUID, _ *types.Posting, status types.ApplicationStatus) error {
	n.calls = append(n.calls, status)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakePostingStore, *fakeUserStore, *recordingNotifier) {
	t.Helper()
	postings := newFakePostingStore()
	users := newFakeUserStore()
	notifier := &recordingNotifier{}
	engine := NewEngine(postings, users, notifier, zap.NewNop().Sugar())
	return engine, postings, users, notifier
}

func seedPosting(store *fakePostingStore, owner uuid.UUID, active bool) uuid.UUID {
	id := uuid.New()
	store.postings[id] = &types.Posting{
		ID:        id,
		Title:     "Backend Engineer",
		Company:   "Acme",
		Active:    active,
		OwnerID:   owner,
		CreatedAt: time.Now(),
	}
	return id
}

func TestSubmit_CreatesPendingApplicationAndBackReference(t *testing.T) {
	engine, postings, users, _ := newTestEngine(t)
	owner := uuid.New()
	applicant := uuid.New()
	postingID := seedPosting(postings, owner, true)

	appID, err := engine.Submit(context.Background(), postingID, applicant, "hello", "resumes/cv.pdf")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, appID)

	app := postings.apps[appID]
	require.NotNil(t, app)
	assert.Equal(t, types.StatusPending, app.Status)
	assert.Equal(t, 1, postings.postings[postingID].ApplicationsCount)

	require.Len(t, users.applied[applicant], 1)
	entry := users.applied[applicant][0]
	assert.Equal(t, postingID, entry.PostingID)
	assert.Equal(t, types.StatusPending, entry.Status)
	assert.Equal(t, app.AppliedAt, entry.AppliedAt)
}

func TestSubmit_DuplicateLeavesCounterUnchanged(t *testing.T) {
	engine, postings, _, _ := newTestEngine(t)
	applicant := uuid.New()
	postingID := seedPosting(postings, uuid.New(), true)

	_, err := engine.Submit(context.Background(), postingID, applicant, "", "")
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), postingID, applicant, "", "")
	var dup *ErrDuplicateApplication
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, postingID, dup.PostingID)
	assert.Equal(t, 1, postings.postings[postingID].ApplicationsCount)
}

func TestSubmit_InsertRaceSurfacesDuplicate(t *testing.T) {
	engine, postings, users, _ := newTestEngine(t)
	applicant := uuid.New()
	postingID := seedPosting(postings, uuid.New(), true)

	// Both racers pass the pre-check; the store's unique constraint
	// rejects the loser with a classified duplicate error.
	postings.createErr = &ErrDuplicateApplication{PostingID: postingID, ApplicantID: applicant}

	_, err := engine.Submit(context.Background(), postingID, applicant, "", "")
	var dup *ErrDuplicateApplication
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, postingID, dup.PostingID)
	assert.Empty(t, users.applied[applicant])
	assert.Equal(t, 0, postings.postings[postingID].ApplicationsCount)
}

func TestSubmit_MissingPosting(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	_, err := engine.Submit(context.Background(), uuid.New(), uuid.New(), "", "")
	var notFound *ErrPostingNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSubmit_InactivePosting(t *testing.T) {
	engine, postings, _, _ := newTestEngine(t)
	postingID := seedPosting(postings, uuid.New(), false)

	_, err := engine.Submit(context.Background(), postingID, uuid.New(), "", "")
	var notFound *ErrPostingNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSubmit_BackReferenceFailureIsPartiallyApplied(t *testing.T) {
	engine, postings, users, _ := newTestEngine(t)
	applicant := uuid.New()
	postingID := seedPosting(postings, uuid.New(), true)
	users.appendErr = errors.New("user store down")

	appID, err := engine.Submit(context.Background(), postingID, applicant, "", "")

	var partial *ErrPartiallyApplied
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, postingID, partial.PostingID)
	assert.Equal(t, applicant, partial.ApplicantID)

	// The posting side committed: counter moved and the application exists.
	assert.Equal(t, 1, postings.postings[postingID].ApplicationsCount)
	assert.NotNil(t, postings.apps[appID])

	// Reconcile repairs the user side once the store recovers.
	users.appendErr = nil
	require.NoError(t, engine.Reconcile(context.Background(), postingID, applicant))
	require.Len(t, users.applied[applicant], 1)
	assert.Equal(t, types.StatusPending, users.applied[applicant][0].Status)

	// Reconcile is idempotent.
	require.NoError(t, engine.Reconcile(context.Background(), postingID, applicant))
	assert.Len(t, users.applied[applicant], 1)
}

func submitApplication(t *testing.T, engine *Engine, postingID, applicant uuid.UUID) uuid.UUID {
	t.Helper()
	appID, err := engine.Submit(context.Background(), postingID, applicant, "", "")
	require.NoError(t, err)
	return appID
}

func TestUpdateStatus_PropagatesToBothAggregates(t *testing.T) {
	engine, postings, users, notifier := newTestEngine(t)
	owner := uuid.New()
	applicant := uuid.New()
	postingID := seedPosting(postings, owner, true)
	appID := submitApplication(t, engine, postingID, applicant)

	err := engine.UpdateStatus(context.Background(), postingID, appID, types.StatusHired, Actor{ID: owner, Role: types.RoleEmployer})
	require.NoError(t, err)

	assert.Equal(t, types.StatusHired, postings.apps[appID].Status)
	assert.Equal(t, types.StatusHired, users.applied[applicant][0].Status)
	assert.Equal(t, []types.ApplicationStatus{types.StatusHired}, notifier.calls)
}

func TestUpdateStatus_NonOwnerUnauthorizedNoMutation(t *testing.T) {
	engine, postings, users, notifier := newTestEngine(t)
	applicant := uuid.New()
	postingID := seedPosting(postings, uuid.New(), true)
	appID := submitApplication(t, engine, postingID, applicant)

	err := engine.UpdateStatus(context.Background(), postingID, appID, types.StatusHired, Actor{ID: uuid.New(), Role: types.RoleEmployer})

	var unauthorized *ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, types.StatusPending, postings.apps[appID].Status)
	assert.Equal(t, types.StatusPending, users.applied[applicant][0].Status)
	assert.Empty(t, notifier.calls)
}

func TestUpdateStatus_AdminMayActOnAnyPosting(t *testing.T) {
	engine, postings, _, _ := newTestEngine(t)
	postingID := seedPosting(postings, uuid.New(), true)
	appID := submitApplication(t, engine, postingID, uuid.New())

	err := engine.UpdateStatus(context.Background(), postingID, appID, types.StatusReviewed, Actor{ID: uuid.New(), Role: types.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, types.StatusReviewed, postings.apps[appID].Status)
}

func TestUpdateStatus_UnknownApplication(t *testing.T) {
	engine, postings, _, _ := newTestEngine(t)
	owner := uuid.New()
	postingID := seedPosting(postings, owner, true)

	err := engine.UpdateStatus(context.Background(), postingID, uuid.New(), types.StatusReviewed, Actor{ID: owner})

	var notFound *ErrApplicationNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestUpdateStatus_BackwardTransitionRejected(t *testing.T) {
	engine, postings, _, _ := newTestEngine(t)
	owner := uuid.New()
	postingID := seedPosting(postings, owner, true)
	appID := submitApplication(t, engine, postingID, uuid.New())
	actor := Actor{ID: owner, Role: types.RoleEmployer}

	require.NoError(t, engine.UpdateStatus(context.Background(), postingID, appID, types.StatusHired, actor))

	err := engine.UpdateStatus(context.Background(), postingID, appID, types.StatusPending, actor)
	var invalid *ErrInvalidTransition
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.StatusHired, invalid.From)
	assert.Equal(t, types.StatusPending, invalid.To)
}

func TestUpdateStatus_SameStatusIsIdempotent(t *testing.T) {
	engine, postings, users, _ := newTestEngine(t)
	owner := uuid.New()
	applicant := uuid.New()
	postingID := seedPosting(postings, owner, true)
	appID := submitApplication(t, engine, postingID, applicant)
	actor := Actor{ID: owner, Role: types.RoleEmployer}

	require.NoError(t, engine.UpdateStatus(context.Background(), postingID, appID, types.StatusReviewed, actor))
	require.NoError(t, engine.UpdateStatus(context.Background(), postingID, appID, types.StatusReviewed, actor))

	assert.Equal(t, types.StatusReviewed, postings.apps[appID].Status)
	assert.Equal(t, types.StatusReviewed, users.applied[applicant][0].Status)
}

func TestUpdateStatus_UserSideFailureIsPartiallyApplied(t *testing.T) {
	engine, postings, users, _ := newTestEngine(t)
	owner := uuid.New()
	applicant := uuid.New()
	postingID := seedPosting(postings, owner, true)
	appID := submitApplication(t, engine, postingID, applicant)
	users.updateErr = errors.New("user store down")

	err := engine.UpdateStatus(context.Background(), postingID, appID, types.StatusShortlisted, Actor{ID: owner})

	var partial *ErrPartiallyApplied
	require.ErrorAs(t, err, &partial)

	// Posting side already moved; back-reference lags.
	assert.Equal(t, types.StatusShortlisted, postings.apps[appID].Status)
	assert.Equal(t, types.StatusPending, users.applied[applicant][0].Status)

	users.updateErr = nil
	require.NoError(t, engine.Reconcile(context.Background(), postingID, applicant))
	assert.Equal(t, types.StatusShortlisted, users.applied[applicant][0].Status)
}

func TestRecordView_Increments(t *testing.T) {
	engine, postings, _, _ := newTestEngine(t)
	postingID := seedPosting(postings, uuid.New(), true)

	require.NoError(t, engine.RecordView(context.Background(), postingID))
	require.NoError(t, engine.RecordView(context.Background(), postingID))

	assert.Equal(t, int64(2), postings.postings[postingID].Views)
}

func TestNotifierIsOptional(t *testing.T) {
	postings := newFakePostingStore()
	users := newFakeUserStore()
	engine := NewEngine(postings, users, nil, zap.NewNop().Sugar())
	owner := uuid.New()
	postingID := seedPosting(postings, owner, true)
	appID := submitApplication(t, engine, postingID, uuid.New())

	err := engine.UpdateStatus(context.Background(), postingID, appID, types.StatusReviewed, Actor{ID: owner})
	assert.NoError(t, err)
}
