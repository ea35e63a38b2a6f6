package toast

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db)

	mock.ExpectRPush("toast:user-1", `{"title":"Profile Updated","severity":"default"}`).SetVal(1)
	mock.ExpectExpire("toast:user-1", defaultTTL).SetVal(true)

	err := q.Push(context.Background(), "user-1", Notification{Title: "Profile Updated"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPush_RedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db)

	mock.Regexp().ExpectRPush("toast:user-1", `.*`).SetErr(errors.New("connection refused"))

	err := q.Push(context.Background(), "user-1", Success("x", ""))
	assert.Error(t, err)
}

func TestDrain(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db)

	mock.ExpectLRange("toast:user-1", 0, -1).SetVal([]string{
		`{"title":"Logged Out","severity":"default"}`,
		`not json`,
		`{"title":"Update Failed","description":"boom","severity":"destructive"}`,
	})
	mock.ExpectLTrim("toast:user-1", 3, -1).SetVal("OK")

	got, err := q.Drain(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Logged Out", got[0].Title)
	assert.False(t, got[0].Destructive())
	assert.True(t, got[1].Destructive())
	assert.Equal(t, "boom", got[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrain_Empty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db)

	mock.ExpectLRange("toast:user-1", 0, -1).SetVal([]string{})

	got, err := q.Drain(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifier_SwallowsErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	n := NewQueue(db).For("user-1")

	mock.Regexp().ExpectRPush("toast:user-1", `.*`).SetErr(errors.New("connection refused"))

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), Failure("Update Failed", "boom"))
	})
}
