package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/dto"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/withdrawal"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

type fakeWithdrawalService struct {
	err         error
	lastUser    entity.RequestingUser
	lastId      uuid.UUID
	lastApp     *dto.WithdrawApplicationRequest
	lastPlace   *dto.WithdrawPlacementRequest
	lastBooking *dto.WithdrawSpaceBookingRequest
}

func (f *fakeWithdrawalService) result(id uuid.UUID, typ string) (*dto.WithdrawalResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.WithdrawalResponse{
		Id:                id,
		Type:              typ,
		Withdrawn:         []dto.WithdrawnNodeResponse{{Id: id, Type: typ, Reason: "x"}},
		Cancelled:         []uuid.UUID{},
		ApplicationStatus: "WITHDRAWN",
		WithdrawnAt:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeWithdrawalService) GetWithdrawables(ctx context.Context, applicationId uuid.UUID, user entity.RequestingUser) (*dto.WithdrawablesResponse, error) {
	f.lastId, f.lastUser = applicationId, user
	if f.err != nil {
		return nil, f.err
	}
	return &dto.WithdrawablesResponse{
		Notes:         []string{},
		Withdrawables: []dto.WithdrawableResponse{{Id: applicationId, Type: "application", DatePeriods: []dto.DatePeriodResponse{}}},
	}, nil
}

func (f *fakeWithdrawalService) WithdrawApplication(ctx context.Context, applicationId uuid.UUID, user entity.RequestingUser, req *dto.WithdrawApplicationRequest) (*dto.WithdrawalResponse, error) {
	f.lastId, f.lastUser, f.lastApp = applicationId, user, req
	return f.result(applicationId, "application")
}

func (f *fakeWithdrawalService) WithdrawPlacementApplication(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawPlacementRequest) (*dto.WithdrawalResponse, error) {
	f.lastId, f.lastUser, f.lastPlace = id, user, req
	return f.result(id, "placementApplication")
}

func (f *fakeWithdrawalService) WithdrawPlacementRequest(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawPlacementRequest) (*dto.WithdrawalResponse, error) {
	f.lastId, f.lastUser, f.lastPlace = id, user, req
	return f.result(id, "placementRequest")
}

func (f *fakeWithdrawalService) WithdrawSpaceBooking(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawSpaceBookingRequest) (*dto.WithdrawalResponse, error) {
	f.lastId, f.lastUser, f.lastBooking = id, user, req
	return f.result(id, "spaceBooking")
}

type fakeSpaceBookingService struct {
	err        error
	arrival    *dto.RecordArrivalRequest
	nonArrival *dto.RecordNonArrivalRequest
}

func (f *fakeSpaceBookingService) RecordArrival(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.RecordArrivalRequest) (*dto.SpaceBookingResponse, error) {
	f.arrival = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SpaceBookingResponse{Id: id, ActualArrivalAt: req.ArrivedAt}, nil
}

func (f *fakeSpaceBookingService) RecordNonArrival(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.RecordNonArrivalRequest) (*dto.SpaceBookingResponse, error) {
	f.nonArrival = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SpaceBookingResponse{Id: id, NonArrivalReason: &req.Reason}, nil
}

func newTestApp(t *testing.T, withdrawals service.IWithdrawalService, bookings service.ISpaceBookingService) *fiber.App {
	t.Setenv("JWT_SECRET", testSecret)
	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewWithdrawalController(withdrawals).RegisterRoutes(api, serverutils.JwtMiddleware)
	NewSpaceBookingController(bookings).RegisterRoutes(api, serverutils.JwtMiddleware)
	return app
}

type call struct {
	method, path, body string
	userId             uuid.UUID
	noAuth             bool
}

func do(t *testing.T, app *fiber.App, c call) (int, serverutils.Response[json.RawMessage]) {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if !c.noAuth {
		userId := c.userId
		if userId == uuid.Nil {
			userId = uuid.New()
		}
		token, err := serverutils.SignToken(testSecret, userId, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out serverutils.Response[json.RawMessage]
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestWithdrawalRoutes(t *testing.T) {
	appId := uuid.New()

	t.Run("withdrawables for the caller", func(t *testing.T) {
		svc := &fakeWithdrawalService{}
		app := newTestApp(t, svc, &fakeSpaceBookingService{})
		userId := uuid.New()

		code, res := do(t, app, call{method: http.MethodGet, path: "/api/applications/" + appId.String() + "/withdrawables", userId: userId})
		assert.Equal(t, fiber.StatusOK, code)
		assert.True(t, res.Success)
		assert.Equal(t, appId, svc.lastId)
		assert.Equal(t, userId, svc.lastUser.Id)

		var body dto.WithdrawablesResponse
		require.NoError(t, json.Unmarshal(res.Data, &body))
		require.Len(t, body.Withdrawables, 1)
		assert.Equal(t, "application", body.Withdrawables[0].Type)
	})

	t.Run("requires a token", func(t *testing.T) {
		app := newTestApp(t, &fakeWithdrawalService{}, &fakeSpaceBookingService{})
		code, _ := do(t, app, call{method: http.MethodGet, path: "/api/applications/" + appId.String() + "/withdrawables", noAuth: true})
		assert.Equal(t, fiber.StatusUnauthorized, code)
	})

	t.Run("malformed id", func(t *testing.T) {
		app := newTestApp(t, &fakeWithdrawalService{}, &fakeSpaceBookingService{})
		code, res := do(t, app, call{method: http.MethodGet, path: "/api/applications/not-a-uuid/withdrawables"})
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, "Invalid application ID", res.Message)
	})

	t.Run("application withdrawal passes the reason through", func(t *testing.T) {
		svc := &fakeWithdrawalService{}
		app := newTestApp(t, svc, &fakeSpaceBookingService{})

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/applications/" + appId.String() + "/withdrawal",
			body: `{"reason":"other","otherReason":"Moved abroad"}`})
		assert.Equal(t, fiber.StatusOK, code)
		require.NotNil(t, svc.lastApp)
		assert.Equal(t, "other", svc.lastApp.Reason)
		assert.Equal(t, "Moved abroad", *svc.lastApp.OtherReason)
	})

	t.Run("other without text is rejected", func(t *testing.T) {
		svc := &fakeWithdrawalService{}
		app := newTestApp(t, svc, &fakeSpaceBookingService{})

		code, res := do(t, app, call{method: http.MethodPost, path: "/api/applications/" + appId.String() + "/withdrawal",
			body: `{"reason":"other"}`})
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, map[string]interface{}{"otherReason": "required_if"}, res.Errors)
		assert.Nil(t, svc.lastApp)
	})

	t.Run("cascade reasons are not accepted from callers", func(t *testing.T) {
		svc := &fakeWithdrawalService{}
		app := newTestApp(t, svc, &fakeSpaceBookingService{})

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/placement-requests/" + uuid.NewString() + "/withdrawal",
			body: `{"reason":"RELATED_APPLICATION_WITHDRAWN"}`})
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Nil(t, svc.lastPlace)
	})

	t.Run("placement application and booking routes", func(t *testing.T) {
		svc := &fakeWithdrawalService{}
		app := newTestApp(t, svc, &fakeSpaceBookingService{})
		paId, bookingId := uuid.New(), uuid.New()

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/placement-applications/" + paId.String() + "/withdraw",
			body: `{"reason":"NO_CAPACITY"}`})
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, paId, svc.lastId)

		code, res := do(t, app, call{method: http.MethodPost, path: "/api/space-bookings/" + bookingId.String() + "/withdrawal",
			body: `{"reason":"Person moved"}`})
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "Space booking cancelled", res.Message)
		assert.Equal(t, "Person moved", svc.lastBooking.Reason)
	})

	errorCases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown application", service.ErrApplicationNotFound, fiber.StatusNotFound},
		{"not permitted", service.ErrForbidden, fiber.StatusForbidden},
		{"arrival recorded", withdrawal.ErrBlockedByArrival, fiber.StatusBadRequest},
		{"already withdrawn", withdrawal.ErrAlreadyWithdrawn, fiber.StatusConflict},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &fakeWithdrawalService{err: tc.err}, &fakeSpaceBookingService{})
			code, res := do(t, app, call{method: http.MethodPost, path: "/api/applications/" + appId.String() + "/withdrawal",
				body: `{"reason":"death"}`})
			assert.Equal(t, tc.code, code)
			assert.False(t, res.Success)
			assert.Equal(t, tc.err.Error(), res.Message)
		})
	}
}

func TestSpaceBookingRoutes(t *testing.T) {
	bookingId := uuid.New()

	t.Run("arrival without a body", func(t *testing.T) {
		svc := &fakeSpaceBookingService{}
		app := newTestApp(t, &fakeWithdrawalService{}, svc)

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/space-bookings/" + bookingId.String() + "/arrival"})
		assert.Equal(t, fiber.StatusOK, code)
		require.NotNil(t, svc.arrival)
		assert.Nil(t, svc.arrival.ArrivedAt)
	})

	t.Run("arrival with a time", func(t *testing.T) {
		svc := &fakeSpaceBookingService{}
		app := newTestApp(t, &fakeWithdrawalService{}, svc)

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/space-bookings/" + bookingId.String() + "/arrival",
			body: `{"arrivedAt":"2024-07-01T15:30:00Z"}`})
		assert.Equal(t, fiber.StatusOK, code)
		require.NotNil(t, svc.arrival.ArrivedAt)
		assert.True(t, svc.arrival.ArrivedAt.Equal(time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC)))
	})

	t.Run("non-arrival needs a reason", func(t *testing.T) {
		svc := &fakeSpaceBookingService{}
		app := newTestApp(t, &fakeWithdrawalService{}, svc)

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/space-bookings/" + bookingId.String() + "/non-arrival", body: `{}`})
		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Nil(t, svc.nonArrival)
	})

	t.Run("conflicting outcome", func(t *testing.T) {
		svc := &fakeSpaceBookingService{err: service.ErrInvalidState}
		app := newTestApp(t, &fakeWithdrawalService{}, svc)

		code, _ := do(t, app, call{method: http.MethodPost, path: "/api/space-bookings/" + bookingId.String() + "/non-arrival",
			body: `{"reason":"Recalled"}`})
		assert.Equal(t, fiber.StatusConflict, code)
	})
}
