package pos_test

import (
	"context"
	"testing"
	"time"

	"go-workforce/internal/pos"
	"go-workforce/internal/tenant"
	"go-workforce/internal/tenant/tenanttest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	byRef   map[string]*pos.Event
	created []*pos.Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byRef: make(map[string]*pos.Event)}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) pos.Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, ev *pos.Event) error {
	f.created = append(f.created, ev)
	f.byRef[ev.ExternalRef] = ev
	return nil
}

func (f *fakeRepo) FindByExternalRef(ctx context.Context, ref string) (*pos.Event, error) {
	if ev, ok := f.byRef[ref]; ok {
		return ev, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListByBranch(ctx context.Context, branchID string, limit int) ([]pos.Event, error) {
	return nil, nil
}

type fakePublisher struct {
	rooms  []string
	events []string
}

func (f *fakePublisher) Publish(ctx context.Context, companyID, room, event string, payload any) error {
	f.rooms = append(f.rooms, room)
	f.events = append(f.events, event)
	return nil
}

func TestRecordSession(t *testing.T) {
	h, _ := tenanttest.NewHandle(t, "c-1")
	branchID := uuid.New()
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	newService := func(repo *fakeRepo, pub *fakePublisher) pos.Service {
		return pos.NewServiceWithRepos(func(h *tenant.Handle) pos.Repository { return repo }, pub)
	}

	t.Run("records and fans out to the branch room", func(t *testing.T) {
		repo := newFakeRepo()
		pub := &fakePublisher{}

		created, err := newService(repo, pub).RecordSession(context.Background(), h, pos.SessionInput{
			SessionID:  "sess-9",
			State:      "opened",
			BranchID:   branchID,
			OccurredAt: at,
		})

		assert.NoError(t, err)
		assert.True(t, created)
		if assert.Len(t, repo.created, 1) {
			assert.Equal(t, pos.EventSessionOpened, repo.created[0].Type)
			assert.Equal(t, "pos-session:sess-9:opened", repo.created[0].ExternalRef)
		}
		assert.Equal(t, []string{"branch:" + branchID.String()}, pub.rooms)
	})

	t.Run("redelivered session event is a no-op", func(t *testing.T) {
		repo := newFakeRepo()
		pub := &fakePublisher{}
		svc := newService(repo, pub)

		in := pos.SessionInput{SessionID: "sess-9", State: "closed", BranchID: branchID, OccurredAt: at}
		_, err := svc.RecordSession(context.Background(), h, in)
		assert.NoError(t, err)

		created, err := svc.RecordSession(context.Background(), h, in)

		assert.NoError(t, err)
		assert.False(t, created)
		assert.Len(t, repo.created, 1)
		assert.Len(t, pub.events, 1)
	})
}

func TestRecordOrder(t *testing.T) {
	h, _ := tenanttest.NewHandle(t, "c-1")
	branchID := uuid.New()

	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := pos.NewServiceWithRepos(func(h *tenant.Handle) pos.Repository { return repo }, pub)

	created, err := svc.RecordOrder(context.Background(), h, pos.OrderInput{
		OrderID:    "ord-1",
		SessionID:  "sess-9",
		BranchID:   branchID,
		Amount:     42.50,
		Currency:   "EUR",
		OccurredAt: time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC),
	})

	assert.NoError(t, err)
	assert.True(t, created)
	if assert.Len(t, repo.created, 1) {
		ev := repo.created[0]
		assert.Equal(t, pos.EventOrderPlaced, ev.Type)
		assert.Equal(t, "pos-order:ord-1", ev.ExternalRef)
		assert.Equal(t, "sess-9", ev.SessionRef)
		if assert.NotNil(t, ev.Amount) {
			assert.Equal(t, 42.50, *ev.Amount)
		}
	}
	assert.Contains(t, pub.events, pos.EventOrderPlaced)
}
