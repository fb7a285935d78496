package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"usuarios-service/models"
	"usuarios-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryStore keeps documents in insertion order.
type memoryStore struct {
	docs    []models.Document
	nextID  int
	inserts int
	err     error
}

func (m *memoryStore) index(filter store.Filter) int {
	for i, doc := range m.docs {
		if doc[filter.Field] == filter.Value {
			return i
		}
	}
	return -1
}

func (m *memoryStore) InsertOne(ctx context.Context, doc models.Document) (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	m.inserts++
	id := fmt.Sprintf("id-%d", m.nextID)
	stored := models.Document{models.FieldID: id}
	for k, v := range doc {
		stored[k] = v
	}
	m.docs = append(m.docs, stored)
	return id, nil
}

func (m *memoryStore) FindOne(ctx context.Context, filter store.Filter) (models.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := m.index(filter)
	if i < 0 {
		return nil, store.ErrNoDocument
	}
	copied := models.Document{}
	for k, v := range m.docs[i] {
		copied[k] = v
	}
	return copied, nil
}

func (m *memoryStore) Find(ctx context.Context) ([]models.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Document(nil), m.docs...), nil
}

func (m *memoryStore) UpdateOne(ctx context.Context, filter store.Filter, set models.Document) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	i := m.index(filter)
	if i < 0 {
		return 0, nil
	}
	for k, v := range set {
		m.docs[i][k] = v
	}
	return 1, nil
}

func (m *memoryStore) DeleteOne(ctx context.Context, filter store.Filter) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	i := m.index(filter)
	if i < 0 {
		return 0, nil
	}
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return 1, nil
}

func (m *memoryStore) Close(ctx context.Context) error { return nil }

func newTestService(t *testing.T) (*UserService, *memoryStore) {
	t.Helper()
	mem := &memoryStore{}
	return NewUserService(mem, zap.NewNop().Sugar()), mem
}

func createAna(t *testing.T, svc *UserService) models.UserOutput {
	t.Helper()
	out, err := svc.Create(context.Background(), models.UserCreate{Username: "ana", Email: "ana@x.com", Password: "p1"})
	require.NoError(t, err)
	return out
}

func TestCreateThenGet(t *testing.T) {
	svc, _ := newTestService(t)

	created := createAna(t, svc)
	assert.Equal(t, models.UserOutput{ID: "id-1", Username: "ana", Email: "ana@x.com", Password: "p1"}, created)

	fetched, err := svc.Get(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, mem := newTestService(t)
	createAna(t, svc)

	_, err := svc.Create(context.Background(), models.UserCreate{Username: "ana", Email: "other@x.com", Password: "p2"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, 1, mem.inserts)
}

func TestCreateStoreError(t *testing.T) {
	svc, mem := newTestService(t)
	mem.err = errors.New("store down")

	_, err := svc.Create(context.Background(), models.UserCreate{Username: "ana", Email: "ana@x.com", Password: "p1"})
	assert.EqualError(t, err, "store down")
	assert.Equal(t, 0, mem.inserts)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	createAna(t, svc)

	_, err := svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "user 'ghost' not found", err.Error())

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	for _, user := range users {
		assert.NotEqual(t, "ghost", user.Username)
	}
}

func TestListPreservesStoreOrder(t *testing.T) {
	svc, _ := newTestService(t)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	for _, name := range []string{"carla", "ana", "bob"} {
		_, err := svc.Create(context.Background(), models.UserCreate{Username: name, Email: name + "@x.com", Password: "p"})
		require.NoError(t, err)
	}

	users, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "carla", users[0].Username)
	assert.Equal(t, "ana", users[1].Username)
	assert.Equal(t, "bob", users[2].Username)
}

func TestListSerializationFailure(t *testing.T) {
	svc, mem := newTestService(t)
	mem.docs = []models.Document{{models.FieldID: "id-9", models.FieldUsername: "broken"}}

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, models.ErrSerialization)
}

func TestGetSerializationFailure(t *testing.T) {
	svc, mem := newTestService(t)
	mem.docs = []models.Document{{models.FieldUsername: "broken", models.FieldEmail: "b@x.com", models.FieldPassword: "p"}}

	_, err := svc.Get(context.Background(), "broken")
	assert.ErrorIs(t, err, models.ErrSerialization)
}

func TestUpdateEmailOnly(t *testing.T) {
	svc, _ := newTestService(t)
	createAna(t, svc)

	updated, err := svc.Update(context.Background(), "ana", models.UserUpdate{Email: models.Some("ana2@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "ana", updated.Username)
	assert.Equal(t, "ana2@x.com", updated.Email)
	assert.Equal(t, "p1", updated.Password)
}

func TestUpdatePasswordOnly(t *testing.T) {
	svc, _ := newTestService(t)
	createAna(t, svc)

	updated, err := svc.Update(context.Background(), "ana", models.UserUpdate{Password: models.Some("p2")})
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", updated.Email)
	assert.Equal(t, "p2", updated.Password)
}

func TestUpdateIgnoresUsername(t *testing.T) {
	svc, _ := newTestService(t)
	createAna(t, svc)

	updated, err := svc.Update(context.Background(), "ana", models.UserUpdate{
		Username: models.Some("bob"),
		Email:    models.Some("ana2@x.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ana", updated.Username)

	_, err = svc.Get(context.Background(), "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEmpty(t *testing.T) {
	tests := []struct {
		name   string
		update models.UserUpdate
	}{
		{"no fields", models.UserUpdate{}},
		{"all null", models.UserUpdate{Username: models.Null[string](), Email: models.Null[string](), Password: models.Null[string]()}},
		{"username only", models.UserUpdate{Username: models.Some("bob")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			created := createAna(t, svc)

			_, err := svc.Update(context.Background(), "ana", tt.update)
			assert.ErrorIs(t, err, ErrEmptyUpdate)

			current, err := svc.Get(context.Background(), "ana")
			require.NoError(t, err)
			assert.Equal(t, created, current)
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "ghost", models.UserUpdate{Email: models.Some("g@x.com")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, mem := newTestService(t)
	createAna(t, svc)

	require.NoError(t, svc.Delete(context.Background(), "ana"))
	_, err := svc.Get(context.Background(), "ana")
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), "ana")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, mem.docs)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	createAna(t, svc)

	result, err := svc.Login(context.Background(), models.UserLogin{Username: "ana", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.LoginResult{Message: LoginSuccessMessage, Username: "ana"}, result)

	_, wrongPassword := svc.Login(context.Background(), models.UserLogin{Username: "ana", Password: "P1"})
	_, unknownUser := svc.Login(context.Background(), models.UserLogin{Username: "ghost", Password: "p1"})
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLoginStoreError(t *testing.T) {
	svc, mem := newTestService(t)
	mem.err = errors.New("store down")

	_, err := svc.Login(context.Background(), models.UserLogin{Username: "ana", Password: "p1"})
	assert.EqualError(t, err, "store down")
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "ok", outcomeOf(nil))
	assert.Equal(t, "rejected", outcomeOf(ErrEmptyUpdate))
	assert.Equal(t, "not_found", outcomeOf(notFound("ana")))
	assert.Equal(t, "unauthorized", outcomeOf(ErrInvalidCredentials))
	assert.Equal(t, "error", outcomeOf(errors.New("boom")))
}
