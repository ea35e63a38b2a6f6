package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testBookingID = "2b0f6c3e-1d4a-4e8b-9c7d-5a6b7c8d9e0f"

func newBookingRouter(repo *MockRepository, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	h := NewHandler(NewService(repo))
	r.GET("/api/bookings", h.ListMyBookings)
	r.GET("/api/bookings/:bookingID", h.GetBooking)
	return r
}

func TestListMyBookings(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListForUser", mock.Anything, "user-1", StatusFilter(StatusReserved)).
		Return([]Booking{{ID: "b1", Status: StatusReserved, BookingCode: "PR-7"}}, nil)
	r := newBookingRouter(repo, "user-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/bookings?status=reserved", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "PR-7", got[0]["booking_code"])
	assert.Equal(t, false, got[0]["is_active"])
	assert.NotContains(t, got[0], "user_id")
}

func TestListMyBookings_BadFilter(t *testing.T) {
	r := newBookingRouter(new(MockRepository), "user-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/bookings?status=booked", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMyBookings_Unauthenticated(t *testing.T) {
	r := newBookingRouter(new(MockRepository), "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/bookings", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetBooking(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, testBookingID).
		Return(&Booking{ID: testBookingID, UserID: "user-1", Status: StatusActive, IsActive: true}, nil)

	t.Run("owner", func(t *testing.T) {
		w := httptest.NewRecorder()
		newBookingRouter(repo, "user-1").ServeHTTP(w, httptest.NewRequest("GET", "/api/bookings/"+testBookingID, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other user", func(t *testing.T) {
		w := httptest.NewRecorder()
		newBookingRouter(repo, "user-2").ServeHTTP(w, httptest.NewRequest("GET", "/api/bookings/"+testBookingID, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := httptest.NewRecorder()
		newBookingRouter(repo, "user-1").ServeHTTP(w, httptest.NewRequest("GET", "/api/bookings/42", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
