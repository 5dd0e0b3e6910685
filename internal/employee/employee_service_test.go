package employee_test

import (
	"context"
	"testing"

	"go-workforce/internal/employee"
	employeeerrors "go-workforce/internal/employee/errors"
	"go-workforce/internal/tenant"
	"go-workforce/internal/tenant/tenanttest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	findByID          func(ctx context.Context, id string) (*employee.Employee, error)
	findByUserKey     func(ctx context.Context, userKey string) (*employee.Employee, error)
	listAssignments   func(ctx context.Context, employeeID string) ([]employee.BranchAssignment, error)
	createdAssignment *employee.BranchAssignment
	deletedIDs        []string
}

func (f *fakeRepo) WithTx(tx *gorm.DB) employee.Repository { return f }

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return f.findByID(ctx, id)
}

func (f *fakeRepo) FindByUserKey(ctx context.Context, userKey string) (*employee.Employee, error) {
	return f.findByUserKey(ctx, userKey)
}

func (f *fakeRepo) ListActiveByRole(ctx context.Context, role string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeRepo) ListAssignments(ctx context.Context, employeeID string) ([]employee.BranchAssignment, error) {
	return f.listAssignments(ctx, employeeID)
}

func (f *fakeRepo) HasAssignment(ctx context.Context, employeeID, branchID string) (bool, error) {
	return false, nil
}

func (f *fakeRepo) CreateAssignment(ctx context.Context, a *employee.BranchAssignment) error {
	f.createdAssignment = a
	return nil
}

func (f *fakeRepo) DeleteAssignments(ctx context.Context, ids []string) error {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return nil
}

type fakeSessions struct {
	companyID  string
	employeeID string
	branchIDs  []string
	calls      int
}

func (f *fakeSessions) SetWorkBranches(ctx context.Context, companyID, employeeID string, branchIDs []string) error {
	f.companyID = companyID
	f.employeeID = employeeID
	f.branchIDs = branchIDs
	f.calls++
	return nil
}

func (f *fakeSessions) GetWorkBranches(ctx context.Context, companyID, employeeID string) ([]string, error) {
	return f.branchIDs, nil
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

func TestReassignWorkBranches(t *testing.T) {
	empID := uuid.New()
	homeBranch := uuid.New()
	oldBranch := uuid.New()
	newBranch := uuid.New()

	homeAssignment := employee.BranchAssignment{ID: uuid.New(), EmployeeID: empID, BranchID: homeBranch, IsHome: true}
	oldAssignment := employee.BranchAssignment{ID: uuid.New(), EmployeeID: empID, BranchID: oldBranch, IsHome: false}

	newService := func(repo *fakeRepo, sessions *fakeSessions, pub *fakePublisher) employee.Service {
		return employee.NewServiceWithRepos(func(h *tenant.Handle) employee.Repository {
			return repo
		}, sessions, pub)
	}

	t.Run("success drops stale branch and adds checked-in branch", func(t *testing.T) {
		h, mock := tenanttest.NewHandle(t, "c-1")
		mock.ExpectBegin()
		mock.ExpectCommit()

		repo := &fakeRepo{
			findByID: func(ctx context.Context, id string) (*employee.Employee, error) {
				return &employee.Employee{ID: empID, IsActive: true}, nil
			},
			listAssignments: func(ctx context.Context, employeeID string) ([]employee.BranchAssignment, error) {
				return []employee.BranchAssignment{homeAssignment, oldAssignment}, nil
			},
		}
		sessions := &fakeSessions{}
		pub := &fakePublisher{}

		got, err := newService(repo, sessions, pub).ReassignWorkBranches(context.Background(), h, empID.String(), newBranch.String())

		assert.NoError(t, err)
		assert.Equal(t, []string{oldAssignment.ID.String()}, repo.deletedIDs)
		assert.NotNil(t, repo.createdAssignment)
		assert.Equal(t, newBranch, repo.createdAssignment.BranchID)
		assert.False(t, repo.createdAssignment.IsHome)
		assert.ElementsMatch(t, []string{homeBranch.String(), newBranch.String()}, got)

		assert.Equal(t, 1, sessions.calls)
		assert.ElementsMatch(t, got, sessions.branchIDs)
		assert.Contains(t, pub.events, "work_branches_updated")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check-in at already assigned branch keeps it", func(t *testing.T) {
		h, mock := tenanttest.NewHandle(t, "c-1")
		mock.ExpectBegin()
		mock.ExpectCommit()

		repo := &fakeRepo{
			findByID: func(ctx context.Context, id string) (*employee.Employee, error) {
				return &employee.Employee{ID: empID, IsActive: true}, nil
			},
			listAssignments: func(ctx context.Context, employeeID string) ([]employee.BranchAssignment, error) {
				return []employee.BranchAssignment{homeAssignment, oldAssignment}, nil
			},
		}
		sessions := &fakeSessions{}

		got, err := newService(repo, sessions, &fakePublisher{}).ReassignWorkBranches(context.Background(), h, empID.String(), oldBranch.String())

		assert.NoError(t, err)
		assert.Nil(t, repo.createdAssignment)
		assert.Empty(t, repo.deletedIDs)
		assert.ElementsMatch(t, []string{homeBranch.String(), oldBranch.String()}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative employee not found rolls back", func(t *testing.T) {
		h, mock := tenanttest.NewHandle(t, "c-1")
		mock.ExpectBegin()
		mock.ExpectRollback()

		repo := &fakeRepo{
			findByID: func(ctx context.Context, id string) (*employee.Employee, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		sessions := &fakeSessions{}

		_, err := newService(repo, sessions, &fakePublisher{}).ReassignWorkBranches(context.Background(), h, empID.String(), newBranch.String())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.Equal(t, 0, sessions.calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
