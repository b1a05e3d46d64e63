package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motor-insurance/internal/auth"
	"github.com/ukydev/motor-insurance/internal/catalog"
	"github.com/ukydev/motor-insurance/internal/certificate"
	"github.com/ukydev/motor-insurance/internal/issuance"
	"github.com/ukydev/motor-insurance/internal/metrics"
	"github.com/ukydev/motor-insurance/internal/middleware"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/quote"
	"github.com/ukydev/motor-insurance/internal/rates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	args := m.Called(ctx, id, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVehicleCollection) SetPricing(ctx context.Context, id string, pricing models.Pricing) error {
	args := m.Called(ctx, id, pricing)
	return args.Error(0)
}

func (m *MockVehicleCollection) MarkPaid(ctx context.Context, id string, paymentID primitive.ObjectID) error {
	args := m.Called(ctx, id, paymentID)
	return args.Error(0)
}

// MockPaymentCollection is a mock implementation of PaymentCollection
type MockPaymentCollection struct {
	mock.Mock
}

func (m *MockPaymentCollection) InsertPayment(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentCollection) FindPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentCollection) FindPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentCollection) FindPaymentByVehicle(ctx context.Context, vehicleID string) (*models.Payment, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

// MockStatsCollection is a mock implementation of StatsCollection
type MockStatsCollection struct {
	mock.Mock
}

func (m *MockStatsCollection) RecordStats(ctx context.Context, now time.Time) ([]models.RecordStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecordStats), args.Error(1)
}

// MockIssuer is a mock implementation of Issuer
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) UpdateVehicle(ctx context.Context, vehicleID string, req models.VehicleRequest) (*models.Vehicle, error) {
	args := m.Called(ctx, vehicleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockIssuer) DeleteVehicle(ctx context.Context, vehicleID string) error {
	args := m.Called(ctx, vehicleID)
	return args.Error(0)
}

func (m *MockIssuer) PriceVehicle(ctx context.Context, vehicleID string, req quote.Request) (*models.Vehicle, quote.Quote, error) {
	args := m.Called(ctx, vehicleID, req)
	if args.Get(0) == nil {
		return nil, quote.Quote{}, args.Error(2)
	}
	return args.Get(0).(*models.Vehicle), args.Get(1).(quote.Quote), args.Error(2)
}

func (m *MockIssuer) RecordPayment(ctx context.Context, in issuance.PaymentInput) (*models.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockIssuer) Policy(ctx context.Context, paymentID string) (*issuance.Policy, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuance.Policy), args.Error(1)
}

// testAPI is the full router wired to mocks.
type testAPI struct {
	handler  http.Handler
	cfg      RouterConfig
	auth     *auth.Service
	engine   *quote.Engine
	metrics  *metrics.Metrics
	users    *MockUserCollection
	vehicles *MockVehicleCollection
	payments *MockPaymentCollection
	stats    *MockStatsCollection
	issuer   *MockIssuer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	authService, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	table, err := rates.Default()
	require.NoError(t, err)
	renderer, err := certificate.New()
	require.NoError(t, err)
	engine, err := quote.NewEngine(table)
	require.NoError(t, err)
	vehicleCatalog, err := catalog.Default()
	require.NoError(t, err)

	api := &testAPI{
		auth:     authService,
		engine:   engine,
		metrics:  metrics.New(prometheus.NewRegistry()),
		users:    new(MockUserCollection),
		vehicles: new(MockVehicleCollection),
		payments: new(MockPaymentCollection),
		stats:    new(MockStatsCollection),
		issuer:   new(MockIssuer),
	}
	api.cfg = RouterConfig{
		Auth:           NewAuthHandler(authService, api.users),
		Quotes:         NewQuoteHandler(api.engine, api.metrics),
		Vehicles:       NewVehicleHandler(api.vehicles, api.issuer),
		Payments:       NewPaymentHandler(api.payments, api.issuer, renderer),
		Stats:          NewStatsHandler(api.stats),
		Meta:           NewMetaHandler(vehicleCatalog),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		Metrics:        api.metrics,
	}
	api.handler = NewRouter(api.cfg)
	t.Cleanup(func() {
		api.users.AssertExpectations(t)
		api.vehicles.AssertExpectations(t)
		api.payments.AssertExpectations(t)
		api.stats.AssertExpectations(t)
		api.issuer.AssertExpectations(t)
	})
	return api
}

func (a *testAPI) token(t *testing.T, role models.Role) string {
	t.Helper()
	token, _, err := a.auth.GenerateToken(&models.User{
		ID:       primitive.NewObjectID(),
		Username: string(role) + "1",
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

// do sends a request as role; an empty role sends no token.
func (a *testAPI) do(t *testing.T, role models.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(t, role))
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}
