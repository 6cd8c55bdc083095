package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gatepassapp "github.com/gatepass/backend/internal/application/gatepass"
	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gatepass/backend/internal/domain/shared"
	"github.com/gatepass/backend/internal/interfaces/http/dto"
	"github.com/gatepass/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGatePassRepository implements gatepass.Repository for testing
type MockGatePassRepository struct {
	mock.Mock
}

func (m *MockGatePassRepository) Save(ctx context.Context, gp *gatepass.GatePassRequest) error {
	args := m.Called(ctx, gp)
	return args.Error(0)
}

func (m *MockGatePassRepository) SaveTransition(ctx context.Context, gp *gatepass.GatePassRequest, expected gatepass.GatePassStatus) error {
	args := m.Called(ctx, gp, expected)
	return args.Error(0)
}

func (m *MockGatePassRepository) FindByRefNo(ctx context.Context, refNo string) (*gatepass.GatePassRequest, error) {
	args := m.Called(ctx, refNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gatepass.GatePassRequest), args.Error(1)
}

func (m *MockGatePassRepository) ListByStatus(ctx context.Context, statuses []gatepass.GatePassStatus, filter shared.Filter) ([]gatepass.StatusRecord, error) {
	args := m.Called(ctx, statuses, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gatepass.StatusRecord), args.Error(1)
}

func (m *MockGatePassRepository) ListBySender(ctx context.Context, senderServiceNo string, filter shared.Filter) ([]gatepass.StatusRecord, error) {
	args := m.Called(ctx, senderServiceNo, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gatepass.StatusRecord), args.Error(1)
}

func (m *MockGatePassRepository) MarkItemsReturned(ctx context.Context, refNo string, serials []string) (int, error) {
	args := m.Called(ctx, refNo, serials)
	return args.Int(0), args.Error(1)
}

func (m *MockGatePassRepository) AppendItem(ctx context.Context, refNo string, item *gatepass.GatePassItem) error {
	args := m.Called(ctx, refNo, item)
	return args.Error(0)
}

func (m *MockGatePassRepository) GenerateRefNo(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Ensure mock implements the interface
var _ gatepass.Repository = (*MockGatePassRepository)(nil)

// stubResolver resolves from a fixed map and falls back to sentinels
type stubResolver struct {
	profiles map[string]identity.Profile
}

func (r *stubResolver) Resolve(_ context.Context, serviceNo string, _ identity.ResolveMode) (*identity.Profile, error) {
	if p, ok := r.profiles[serviceNo]; ok {
		return &p, nil
	}
	return nil, identity.ErrProfileNotFound
}

func (r *stubResolver) Seed(profile identity.Profile) {
	if r.profiles == nil {
		r.profiles = make(map[string]identity.Profile)
	}
	r.profiles[profile.ServiceNo] = profile
}

// Test helpers

func gatePassTestSession() identity.SessionUser {
	return identity.SessionUser{
		Profile: identity.Profile{
			ServiceNo:   "EMP500",
			DisplayName: "K. Fernando",
			Source:      identity.SourceSession,
		},
		Branches: []string{"KANDY"},
	}
}

func setupGatePassTestRouter(authenticated bool) (*gin.Engine, *MockGatePassRepository) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockGatePassRepository)
	pipeline := gatepassapp.NewEnrichmentPipeline(&stubResolver{})
	service := gatepassapp.NewGatePassService(mockRepo, pipeline)
	handler := NewGatePassHandler(service)

	router := gin.New()
	if authenticated {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.SessionUserKey, gatePassTestSession())
		})
	}
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return router, mockRepo
}

func newTestGatePass(refNo string) *gatepass.GatePassRequest {
	gp, err := gatepass.NewGatePassRequest(refNo, "EMP500", "EMP600", "Kandy Depot", "Colombo HQ", "KANDY", "HO")
	if err != nil {
		panic(err)
	}
	_, _ = gp.AddItem("SN-1", "Router", "Network", "RX-9", decimal.NewFromInt(1), true)
	return gp
}

// Tests

func TestGatePassHandler_List(t *testing.T) {
	t.Run("returns the pending verifier queue", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		gp := newTestGatePass("GP-2026-00007")
		mockRepo.On("ListByStatus",
			mock.Anything,
			[]gatepass.GatePassStatus{gatepass.StatusAwaitingVerification},
			mock.Anything,
		).Return([]gatepass.StatusRecord{gatepass.RecordFromRequest(gp)}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/gate-passes?tab=pending&role=verifier", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)

		records := resp.Data.([]interface{})
		require.Len(t, records, 1)
		first := records[0].(map[string]interface{})
		assert.Equal(t, "GP-2026-00007", first["reference_number"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown tab value", func(t *testing.T) {
		router, _ := setupGatePassTestRouter(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/gate-passes?tab=archive", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		router, _ := setupGatePassTestRouter(false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/gate-passes", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGatePassHandler_Create(t *testing.T) {
	t.Run("creates a gate pass", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		mockRepo.On("GenerateRefNo", mock.Anything).Return("GP-2026-00001", nil)
		mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(gp *gatepass.GatePassRequest) bool {
			return gp.RefNo == "GP-2026-00001" && gp.SenderServiceNo == "EMP500"
		})).Return(nil)

		body := gatepassapp.CreateRequest{
			ReceiverID:  "EMP600",
			OutLocation: "Kandy Depot",
			InLocation:  "Colombo HQ",
			BranchOut:   "KANDY",
			BranchIn:    "HO",
			Items: []gatepassapp.CreateItemRequest{
				{SerialNumber: "SN-1", Name: "Router", Quantity: decimal.NewFromInt(1), Returnable: true},
			},
		}
		payload, _ := json.Marshal(body)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		record := resp.Data.(map[string]interface{})
		assert.Equal(t, "GP-2026-00001", record["reference_number"])
		assert.Equal(t, string(gatepass.StatusAwaitingVerification), record["status"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects a submission without items", func(t *testing.T) {
		router, _ := setupGatePassTestRouter(true)

		payload := []byte(`{"receiver_id":"EMP600","out_location":"A","in_location":"B","items":[]}`)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGatePassHandler_Get(t *testing.T) {
	t.Run("returns 404 for an unknown reference", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		mockRepo.On("FindByRefNo", mock.Anything, "GP-2026-09999").Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/gate-passes/GP-2026-09999", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestGatePassHandler_Approve(t *testing.T) {
	t.Run("advances one stage", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		gp := newTestGatePass("GP-2026-00002")
		mockRepo.On("FindByRefNo", mock.Anything, "GP-2026-00002").Return(gp, nil)
		mockRepo.On("SaveTransition", mock.Anything, gp, gatepass.StatusAwaitingVerification).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00002/approve", bytes.NewReader([]byte(`{"comment":"checked"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		record := resp.Data.(map[string]interface{})
		assert.Equal(t, string(gatepass.StatusAwaitingReceipt), record["status"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("maps a stale transition to 409", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		gp := newTestGatePass("GP-2026-00003")
		mockRepo.On("FindByRefNo", mock.Anything, "GP-2026-00003").Return(gp, nil)
		mockRepo.On("SaveTransition", mock.Anything, gp, gatepass.StatusAwaitingVerification).
			Return(shared.ErrStaleWriteConflict)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00003/approve", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeStaleWrite, resp.Error.Code)
	})
}

func TestGatePassHandler_Reject(t *testing.T) {
	t.Run("requires a comment", func(t *testing.T) {
		router, _ := setupGatePassTestRouter(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00004/reject", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("records the rejection", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		gp := newTestGatePass("GP-2026-00005")
		mockRepo.On("FindByRefNo", mock.Anything, "GP-2026-00005").Return(gp, nil)
		mockRepo.On("SaveTransition", mock.Anything, gp, gatepass.StatusAwaitingVerification).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00005/reject", bytes.NewReader([]byte(`{"comment":"wrong depot"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		record := resp.Data.(map[string]interface{})
		assert.Equal(t, string(gatepass.StatusRejected), record["status"])
		assert.Equal(t, string(gatepass.StatusAwaitingVerification), record["rejection_level"])
		mockRepo.AssertExpectations(t)
	})
}

func TestGatePassHandler_ReturnItems(t *testing.T) {
	t.Run("reports the updated count", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		mockRepo.On("MarkItemsReturned", mock.Anything, "GP-2026-00006", []string{"SN-1", "SN-2"}).
			Return(2, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00006/items/return", bytes.NewReader([]byte(`{"serial_numbers":["SN-1","SN-2"]}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(2), data["updated_count"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("requires at least one serial", func(t *testing.T) {
		router, _ := setupGatePassTestRouter(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00006/items/return", bytes.NewReader([]byte(`{"serial_numbers":[]}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGatePassHandler_AddItem(t *testing.T) {
	router, mockRepo := setupGatePassTestRouter(true)

	gp := newTestGatePass("GP-2026-00008")
	mockRepo.On("FindByRefNo", mock.Anything, "GP-2026-00008").Return(gp, nil)
	mockRepo.On("AppendItem", mock.Anything, "GP-2026-00008", mock.MatchedBy(func(item *gatepass.GatePassItem) bool {
		return item.SerialNumber == "SN-2" && item.RequestID == gp.ID
	})).Return(nil)

	body := gatepassapp.AddItemRequest{
		SerialNumber: "SN-2",
		Name:         "Switch",
		Quantity:     decimal.NewFromInt(1),
	}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00008/items", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockRepo.AssertExpectations(t)
}

func TestGatePassHandler_SetVisibility(t *testing.T) {
	t.Run("hides a gate pass", func(t *testing.T) {
		router, mockRepo := setupGatePassTestRouter(true)

		gp := newTestGatePass("GP-2026-00009")
		mockRepo.On("FindByRefNo", mock.Anything, "GP-2026-00009").Return(gp, nil)
		mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(saved *gatepass.GatePassRequest) bool {
			return saved.Hidden
		})).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00009/visibility",
			bytes.NewReader([]byte(`{"hidden":true}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects a body without the hidden field", func(t *testing.T) {
		router, _ := setupGatePassTestRouter(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/gate-passes/GP-2026-00009/visibility",
			bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_Profile(t *testing.T) {
	t.Run("returns and seeds the session profile", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		resolver := &stubResolver{}
		handler := NewSessionHandler(resolver)

		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(middleware.SessionUserKey, gatePassTestSession())
		})
		api := router.Group("/api/v1")
		handler.RegisterRoutes(api)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/session/profile", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		profile := data["profile"].(map[string]interface{})
		assert.Equal(t, "EMP500", profile["service_no"])
		assert.Equal(t, "K. Fernando", profile["display_name"])

		// The resolver cache now holds the session profile
		seeded, err := resolver.Resolve(context.Background(), "EMP500", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "K. Fernando", seeded.DisplayName)
	})

	t.Run("refresh asks the directory", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		resolver := &stubResolver{profiles: map[string]identity.Profile{
			"EMP500": {ServiceNo: "EMP500", DisplayName: "K. B. Fernando", Source: identity.SourceDirectory},
		}}
		handler := NewSessionHandler(resolver)

		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(middleware.SessionUserKey, gatePassTestSession())
		})
		api := router.Group("/api/v1")
		handler.RegisterRoutes(api)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/session/profile?refresh=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		profile := data["profile"].(map[string]interface{})
		assert.Equal(t, "K. B. Fernando", profile["display_name"])
	})
}

