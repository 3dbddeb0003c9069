package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/dimitrije/pod-console/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupSSETest(t *testing.T) (*testutil.MockSSEHub, *testutil.MockPodService, http.Handler) {
	t.Helper()
	mockHub := new(testutil.MockSSEHub)
	mockPodService := new(testutil.MockPodService)
	handler := NewSSEHandler(mockHub, mockPodService)
	app := newTestApp(testutil.ScopedActor("p1"),
		route{http.MethodGet, "/events", handler.Connect},
		route{http.MethodGet, "/pods/:id/events", handler.ConnectPod},
		route{http.MethodPost, "/events/:clientId/subscribe/:podId", handler.Subscribe},
		route{http.MethodDelete, "/events/:clientId/subscribe/:podId", handler.Unsubscribe},
	)
	return mockHub, mockPodService, app
}

func TestSSEHandler_Subscribe(t *testing.T) {
	mockHub, mockPodService, app := setupSSETest(t)
	mockPodService.On("Get", mock.Anything, mock.Anything, "p2").Return(pod("p2", 0, 0), nil)
	mockHub.On("Subscribe", "client-1", "adm-ops", "p2").Return(true)

	rec := testutil.NewHTTPTestClient(t, app).POST("/events/client-1/subscribe/p2", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "subscribed to pod p2")
	mockHub.AssertExpectations(t)
}

func TestSSEHandler_Subscribe_OutOfScope(t *testing.T) {
	mockHub, mockPodService, app := setupSSETest(t)
	mockPodService.On("Get", mock.Anything, mock.Anything, "other").
		Return(nil, &apperr.AuthError{Status: http.StatusForbidden, Message: "pod other is outside your scope"})

	rec := testutil.NewHTTPTestClient(t, app).POST("/events/client-1/subscribe/other", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	mockHub.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything)
}

func TestSSEHandler_Subscribe_UnknownClient(t *testing.T) {
	mockHub, mockPodService, app := setupSSETest(t)
	mockPodService.On("Get", mock.Anything, mock.Anything, "p1").Return(pod("p1", 0, 0), nil)
	mockHub.On("Subscribe", "gone", "adm-ops", "p1").Return(false)

	rec := testutil.NewHTTPTestClient(t, app).POST("/events/gone/subscribe/p1", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusNotFound)
	assert.Contains(t, rec.Body.String(), "event client not found")
}

func TestSSEHandler_Unsubscribe(t *testing.T) {
	mockHub, _, app := setupSSETest(t)
	mockHub.On("Unsubscribe", "client-1", "adm-ops", "p1").Return(true)

	rec := testutil.NewHTTPTestClient(t, app).DELETE("/events/client-1/subscribe/p1", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "unsubscribed from pod p1")
}

func TestSSEHandler_ConnectPod_NotFound(t *testing.T) {
	mockHub, mockPodService, app := setupSSETest(t)
	mockPodService.On("Get", mock.Anything, mock.Anything, "ghost").Return(nil, apperr.NotFound("pod", "ghost"))

	rec := testutil.NewHTTPTestClient(t, app).GET("/pods/ghost/events", nil)

	testutil.AssertStatus(t, rec, http.StatusNotFound)
	mockHub.AssertNotCalled(t, "Register", mock.Anything)
}

func TestSSEHandler_Connect_RegistersUntilDisconnect(t *testing.T) {
	mockHub, _, app := setupSSETest(t)
	var registered *sse.Client
	mockHub.On("Register", mock.AnythingOfType("*sse.Client")).Run(func(args mock.Arguments) {
		registered = args.Get(0).(*sse.Client)
	})
	mockHub.On("Unregister", mock.AnythingOfType("*sse.Client"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	mockHub.AssertExpectations(t)
	if assert.NotNil(t, registered) {
		assert.Equal(t, "adm-ops", registered.AdminID)
		assert.Empty(t, registered.Pods)
	}
	assert.Contains(t, rec.Body.String(), "connected")
}
