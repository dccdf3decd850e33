package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/handler"
	"github.com/segyhp/bike-rental-engine/internal/middleware"
	"github.com/segyhp/bike-rental-engine/internal/mocks"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	memberActor = domain.Actor{ID: 5, Role: domain.RoleMember}
	adminActor  = domain.Actor{ID: 2, Role: domain.RoleAdmin}
)

type testServer struct {
	router   *mux.Router
	auth     *middleware.Authenticator
	rentals  *mocks.MockRentalService
	payments *mocks.MockPaymentService
	bikes    *mocks.MockBikeService
	reports  *mocks.MockReportService
}

func newTestServer() *testServer {
	s := &testServer{
		auth:     middleware.NewAuthenticator("handler-secret", logger.Discard()),
		rentals:  &mocks.MockRentalService{},
		payments: &mocks.MockPaymentService{},
		bikes:    &mocks.MockBikeService{},
		reports:  &mocks.MockReportService{},
	}
	s.router = handler.NewRouter(handler.Handlers{
		Rentals:  handler.NewRentalHandler(s.rentals, time.UTC),
		Payments: handler.NewPaymentHandler(s.payments),
		Bikes:    handler.NewBikeHandler(s.bikes),
		Reports:  handler.NewReportHandler(s.reports, time.UTC),
	}, s.auth.Authenticate)
	return s
}

func (s *testServer) do(t *testing.T, method, path string, as *domain.Actor, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := s.auth.IssueToken(*as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRentalHandler_CreateRental(t *testing.T) {
	tests := []struct {
		name           string
		as             *domain.Actor
		requestBody    interface{}
		setupMock      func(*mocks.MockRentalService)
		expectedStatus int
		checkResponse  func(*testing.T, envelope)
	}{
		{
			name: "member books a rental",
			as:   &memberActor,
			requestBody: domain.CreateRentalRequest{
				BikeID: 9, PickupDate: "2024-01-01", PickupTime: "10:00", DurationHours: 3,
			},
			setupMock: func(m *mocks.MockRentalService) {
				m.On("CreateRental", mock.Anything, int64(5), mock.MatchedBy(func(req *domain.CreateRentalRequest) bool {
					return req.BikeID == 9 && req.DurationHours == 3
				})).Return(&domain.CreateRentalResponse{
					RentalID: 42,
					Status:   domain.RentalStatusPending,
					Cost:     decimal.NewFromInt(150),
				}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, env envelope) {
				var data domain.CreateRentalResponse
				require.NoError(t, json.Unmarshal(env.Data, &data))
				assert.Equal(t, int64(42), data.RentalID)
				assert.True(t, data.Cost.Equal(decimal.NewFromInt(150)))
			},
		},
		{
			name: "duration below one hour is rejected before the service",
			as:   &memberActor,
			requestBody: map[string]interface{}{
				"bike_id": 9, "pickup_date": "2024-01-01", "pickup_time": "10:00", "duration_hours": 0,
			},
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, env envelope) {
				assert.Equal(t, customError.ErrCodeInvalidInput, env.Code)
			},
		},
		{
			name: "unavailable bike maps to conflict",
			as:   &memberActor,
			requestBody: domain.CreateRentalRequest{
				BikeID: 9, PickupDate: "2024-01-01", PickupTime: "10:00", DurationHours: 3,
			},
			setupMock: func(m *mocks.MockRentalService) {
				m.On("CreateRental", mock.Anything, int64(5), mock.Anything).Return(nil, customError.WrapBikeUnavailable(9)).Once()
			},
			expectedStatus: http.StatusConflict,
			checkResponse: func(t *testing.T, env envelope) {
				assert.Equal(t, customError.ErrCodeBikeUnavailable, env.Code)
			},
		},
		{
			name: "storage failure hides detail",
			as:   &memberActor,
			requestBody: domain.CreateRentalRequest{
				BikeID: 9, PickupDate: "2024-01-01", PickupTime: "10:00", DurationHours: 3,
			},
			setupMock: func(m *mocks.MockRentalService) {
				m.On("CreateRental", mock.Anything, int64(5), mock.Anything).
					Return(nil, customError.WrapDatabaseError(errors.New("pq: relation does not exist"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, env envelope) {
				assert.Equal(t, "database operation failed", env.Message)
			},
		},
		{
			name:           "admins do not book rentals",
			as:             &adminActor,
			requestBody:    domain.CreateRentalRequest{BikeID: 9, PickupDate: "2024-01-01", PickupTime: "10:00", DurationHours: 3},
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "anonymous caller",
			requestBody:    domain.CreateRentalRequest{BikeID: 9, PickupDate: "2024-01-01", PickupTime: "10:00", DurationHours: 3},
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			tt.setupMock(s.rentals)

			w := s.do(t, http.MethodPost, "/api/v1/rentals", tt.as, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeEnvelope(t, w))
			}
			s.rentals.AssertExpectations(t)
		})
	}
}

func TestRentalHandler_ExtendRental(t *testing.T) {
	t.Run("sibling rental id is exposed", func(t *testing.T) {
		s := newTestServer()
		s.rentals.On("ExtendRental", mock.Anything, int64(1), int64(5), 2).Return(&domain.ExtendRentalResult{
			RentalID:         1,
			NewPlannedReturn: time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
			NewDurationHours: 5,
			ExtraHours:       2,
			Outcome:          domain.ExtendedAsNewRental{RentalID: 2},
		}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/extend", &memberActor, domain.ExtendRentalRequest{AdditionalHours: 2})

		assert.Equal(t, http.StatusOK, w.Code)
		var data domain.ExtendRentalResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
		require.NotNil(t, data.ExtensionRentalID)
		assert.Equal(t, int64(2), *data.ExtensionRentalID)
		assert.Equal(t, 5, data.NewDurationHours)
		s.rentals.AssertExpectations(t)
	})

	t.Run("in place extension has null sibling", func(t *testing.T) {
		s := newTestServer()
		s.rentals.On("ExtendRental", mock.Anything, int64(1), int64(5), 2).Return(&domain.ExtendRentalResult{
			RentalID: 1,
			Outcome:  domain.ExtendedInPlace{},
		}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/extend", &memberActor, domain.ExtendRentalRequest{AdditionalHours: 2})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"extension_rental_id":null`)
	})

	t.Run("cancelled rental is a conflict", func(t *testing.T) {
		s := newTestServer()
		s.rentals.On("ExtendRental", mock.Anything, int64(1), int64(5), 2).
			Return(nil, customError.WrapInvalidState("rental 1 has already ended")).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/extend", &memberActor, domain.ExtendRentalRequest{AdditionalHours: 2})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad rental id", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/abc/extend", &memberActor, domain.ExtendRentalRequest{AdditionalHours: 2})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.rentals.AssertNotCalled(t, "ExtendRental", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRentalHandler_CompleteAndCancel(t *testing.T) {
	s := newTestServer()
	s.rentals.On("CompleteRental", mock.Anything, int64(1), adminActor).Return(&domain.EndRentalResponse{
		RentalID: 1, Status: domain.RentalStatusCompleted,
	}, nil).Once()
	s.rentals.On("CancelRental", mock.Anything, int64(1), memberActor).Return(&domain.EndRentalResponse{
		RentalID: 1, Status: domain.RentalStatusCancelled, AlreadyEnded: true,
	}, nil).Once()

	w := s.do(t, http.MethodPost, "/api/v1/rentals/1/complete", &adminActor, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/rentals/1/cancel", &memberActor, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"already_ended":true`)

	s.rentals.AssertExpectations(t)
}

func TestRentalHandler_EndRental(t *testing.T) {
	t.Run("no body infers the action", func(t *testing.T) {
		s := newTestServer()
		s.rentals.On("EndRental", mock.Anything, int64(1), int64(5), domain.EndActionNone).Return(&domain.EndRentalResponse{
			RentalID: 1, Status: domain.RentalStatusCompleted,
		}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/end", &memberActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.rentals.AssertExpectations(t)
	})

	t.Run("explicit action is passed through", func(t *testing.T) {
		s := newTestServer()
		s.rentals.On("EndRental", mock.Anything, int64(1), int64(5), domain.EndActionCancel).Return(&domain.EndRentalResponse{
			RentalID: 1, Status: domain.RentalStatusCancelled,
		}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/end", &memberActor, domain.EndRentalRequest{Action: domain.EndActionCancel})

		assert.Equal(t, http.StatusOK, w.Code)
		s.rentals.AssertExpectations(t)
	})

	t.Run("unknown action fails validation", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/end", &memberActor, map[string]string{"action": "return"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRentalHandler_ListRentals(t *testing.T) {
	s := newTestServer()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.rentals.On("ListRentals", mock.Anything, memberActor, mock.MatchedBy(func(f domain.RentalFilter) bool {
		return f.BikeID != nil && *f.BikeID == 9 && f.From != nil && f.From.Equal(from) && f.To == nil
	})).Return([]*domain.RentalView{}, nil).Once()

	w := s.do(t, http.MethodGet, "/api/v1/rentals?bike_id=9&from=2024-01-01", &memberActor, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	s.rentals.AssertExpectations(t)

	w = s.do(t, http.MethodGet, "/api/v1/rentals?from=yesterday", &memberActor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler(t *testing.T) {
	t.Run("expected amount forwards as-of values", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("ComputeExpectedAmount", mock.Anything, int64(1), memberActor, "2024-01-01", "11:30").
			Return(&domain.ExpectedAmountResponse{RentalID: 1, ExpectedAmount: decimal.NewFromInt(150), Hours: 3}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/rentals/1/expected-amount?as_of_date=2024-01-01&as_of_time=11:30", &memberActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var data domain.ExpectedAmountResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
		assert.Equal(t, 3, data.Hours)
		s.payments.AssertExpectations(t)
	})

	t.Run("record payment", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("RecordPayment", mock.Anything, int64(1), memberActor, mock.MatchedBy(func(req *domain.RecordPaymentRequest) bool {
			return req.Amount.Equal(decimal.NewFromInt(150)) && req.Status == domain.PaymentStatusCompleted
		})).Return(&domain.RecordPaymentResponse{PaymentID: 7, TransactionID: "TXN-1"}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/payments", &memberActor, map[string]interface{}{
			"transaction_id": "TXN-1",
			"amount":         "150.00",
			"method":         "cash",
			"status":         "completed",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		s.payments.AssertExpectations(t)
	})

	t.Run("amount mismatch is a bad request", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("RecordPayment", mock.Anything, int64(1), memberActor, mock.Anything).
			Return(nil, customError.WrapAmountMismatch("150.00", "100.00")).Once()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/payments", &memberActor, map[string]interface{}{
			"amount": "100", "method": "card", "status": "completed",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, customError.ErrCodeAmountMismatch, decodeEnvelope(t, w).Code)
	})

	t.Run("invalid method never reaches the service", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodPost, "/api/v1/rentals/1/payments", &memberActor, map[string]interface{}{
			"amount": "150", "method": "cheque", "status": "completed",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.payments.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("complete payment", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("CompletePayment", mock.Anything, int64(7), adminActor).
			Return(&domain.Payment{ID: 7, Status: domain.PaymentStatusCompleted}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/payments/7/complete", &adminActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.payments.AssertExpectations(t)
	})

	t.Run("list payments", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("ListPayments", mock.Anything, int64(1), memberActor).
			Return([]*domain.Payment{{ID: 7}}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/rentals/1/payments", &memberActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.payments.AssertExpectations(t)
	})
}

func TestBikeHandler(t *testing.T) {
	t.Run("members can browse bikes", func(t *testing.T) {
		s := newTestServer()
		status := domain.BikeStatusAvailable
		s.bikes.On("ListBikes", mock.Anything, &status).Return([]*domain.Bike{{ID: 9}}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/bikes?status=Available", &memberActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.bikes.AssertExpectations(t)
	})

	t.Run("members cannot create bikes", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodPost, "/api/v1/bikes", &memberActor, map[string]interface{}{
			"model": "Trek", "bike_type": "hybrid", "hourly_rate": "50",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		s.bikes.AssertNotCalled(t, "CreateBike", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin creates a bike", func(t *testing.T) {
		s := newTestServer()
		s.bikes.On("CreateBike", mock.Anything, adminActor, mock.MatchedBy(func(req *domain.CreateBikeRequest) bool {
			return req.Model == "Trek" && req.HourlyRate.Equal(decimal.NewFromInt(50))
		})).Return(&domain.Bike{ID: 9, Model: "Trek"}, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/bikes", &adminActor, map[string]interface{}{
			"model": "Trek", "bike_type": "hybrid", "hourly_rate": "50",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		s.bikes.AssertExpectations(t)
	})

	t.Run("rented status cannot be set by hand", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodPut, "/api/v1/bikes/9/status", &adminActor, map[string]string{"status": "Rented"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing bike", func(t *testing.T) {
		s := newTestServer()
		s.bikes.On("GetBike", mock.Anything, int64(3)).Return(nil, customError.WrapBikeNotFound(3)).Once()

		w := s.do(t, http.MethodGet, "/api/v1/bikes/3", &memberActor, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReportHandler(t *testing.T) {
	t.Run("summary treats to as inclusive", func(t *testing.T) {
		s := newTestServer()
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		s.reports.On("Summary", mock.Anything, from, to).Return(&domain.RentalSummary{TotalRentals: 4}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/reports/summary?from=2024-01-01&to=2024-01-02", &adminActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.reports.AssertExpectations(t)
	})

	t.Run("summary needs both dates", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodGet, "/api/v1/reports/summary?from=2024-01-01", &adminActor, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reports are admin only", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodGet, "/api/v1/reports/overdue", &memberActor, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("overdue list", func(t *testing.T) {
		s := newTestServer()
		s.reports.On("OverdueRentals", mock.Anything).Return([]*domain.OverdueRental{{RentalID: 1, OverdueHours: 2}}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/reports/overdue", &adminActor, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.reports.AssertExpectations(t)
	})
}
