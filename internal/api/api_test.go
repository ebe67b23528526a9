package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Init(c *config.Config) error {
	return m.Called(c).Error(0)
}

func (m *mockAPI) RegisterRoutes(r fiber.Router) {
	m.Called(r)
	r.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})
	r.Get("/fail", func(c *fiber.Ctx) error {
		return errdefs.Fetch("open", "docs", "a/1.txt", errors.New("AccessDenied"))
	})
}

var testAPI = &mockAPI{}

func init() {
	APIRegister("mock", testAPI)
}

func TestAPIRegisterDuplicate(t *testing.T) {
	assert.Panics(t, func() { APIRegister("mock", &mockAPI{}) })
	assert.Contains(t, Registered(), "mock")
}

func TestServerInit(t *testing.T) {
	t.Run("unknown module", func(t *testing.T) {
		s := New(&config.Config{Modules: []string{"registry"}})
		err := s.Init()
		assert.True(t, errdefs.IsConfiguration(err))
	})

	t.Run("module init error", func(t *testing.T) {
		c := &config.Config{Modules: []string{"mock"}}
		cause := errors.New("no backend")
		testAPI.On("Init", c).Return(cause).Once()
		assert.ErrorIs(t, New(c).Init(), cause)
	})
}

func TestServerRoutes(t *testing.T) {
	c := &config.Config{Modules: []string{"mock"}}
	testAPI.On("Init", c).Return(nil).Once()
	testAPI.On("RegisterRoutes", mock.Anything).Once()

	s := New(c)
	require.NoError(t, s.Init())
	testAPI.AssertExpectations(t)
	app := s.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "AccessDenied")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errdefs.Configuration("bucket is required"), http.StatusBadRequest},
		{errdefs.Listing("docs", fmt.Errorf("%w: NoSuchBucket", errdefs.ErrNoSuchBucket)), http.StatusNotFound},
		{errdefs.Listing("docs", errors.New("AccessDenied")), http.StatusBadGateway},
		{errdefs.Fetch("open", "docs", "k", errors.New("reset")), http.StatusBadGateway},
		{fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, StatusOf(tt.err), "%v", tt.err)
	}
}
