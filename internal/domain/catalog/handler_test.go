package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/jwt"
)

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type catalogAPI struct {
	router *gin.Engine
	svc    *catalog.Service
	admin  string
	client string
}

func setupCatalogRouter(t *testing.T) catalogAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := catalog.NewService(catalog.NewRepository(setupTestDB(t)), zap.NewNop())
	h := catalog.NewHandler(svc, zap.NewNop())
	j := jwt.New("test-secret", time.Hour)

	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(j), middleware.AdminOnly())
	h.RegisterAdminRoutes(admin)

	adminTok, err := j.GenerateToken(1, "admin")
	require.NoError(t, err)
	clientTok, err := j.GenerateToken(2, "client")
	require.NoError(t, err)

	return catalogAPI{router: r, svc: svc, admin: "Bearer " + adminTok, client: "Bearer " + clientTok}
}

func (a catalogAPI) do(t *testing.T, method, path, auth string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestGetRoomForReservation(t *testing.T) {
	api := setupCatalogRouter(t)
	paris, _ := seedCatalog(t, api.svc)
	rooms, err := api.svc.ListRooms(context.Background(), paris.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rooms)

	t.Run("found", func(t *testing.T) {
		code, resp := api.do(t, http.MethodGet, fmt.Sprintf("/api/reservation/get?room=%d", rooms[0].ID), "", nil)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Success)
		room := resp.Data["room"].(map[string]any)
		assert.Equal(t, "Deluxe", room["name"])
		assert.EqualValues(t, paris.ID, room["establishment_id"])
	})

	t.Run("missing room", func(t *testing.T) {
		code, resp := api.do(t, http.MethodGet, "/api/reservation/get?room=999999", "", nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.False(t, resp.Success)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	for _, raw := range []string{"", "abc", "0", "-3"} {
		t.Run("bad id "+raw, func(t *testing.T) {
			code, resp := api.do(t, http.MethodGet, "/api/reservation/get?room="+raw, "", nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "INVALID_ID", resp.Error.Code)
		})
	}
}

func TestPublicRoutes_ErrorMapping(t *testing.T) {
	api := setupCatalogRouter(t)

	code, resp := api.do(t, http.MethodGet, "/api/establishments/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	code, resp = api.do(t, http.MethodGet, "/api/rooms/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)

	code, resp = api.do(t, http.MethodGet, "/api/rooms/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestAdminRoomRoutes(t *testing.T) {
	api := setupCatalogRouter(t)
	paris, _ := seedCatalog(t, api.svc)
	rooms, err := api.svc.ListRooms(context.Background(), paris.ID)
	require.NoError(t, err)
	roomID := rooms[0].ID

	t.Run("availability on missing room", func(t *testing.T) {
		code, resp := api.do(t, http.MethodPatch, "/api/admin/rooms/999999/availability", api.admin, map[string]bool{"available": false})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("availability requires the field", func(t *testing.T) {
		code, resp := api.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/rooms/%d/availability", roomID), api.admin, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})

	t.Run("availability toggles", func(t *testing.T) {
		code, resp := api.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/rooms/%d/availability", roomID), api.admin, map[string]bool{"available": false})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, resp.Data["available"])

		room, err := api.svc.GetRoom(context.Background(), roomID)
		require.NoError(t, err)
		assert.False(t, room.Available)
	})

	t.Run("client is forbidden", func(t *testing.T) {
		code, _ := api.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/rooms/%d/availability", roomID), api.client, map[string]bool{"available": true})
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("update missing room", func(t *testing.T) {
		code, resp := api.do(t, http.MethodPut, "/api/admin/rooms/999999", api.admin, map[string]string{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("update with invalid price", func(t *testing.T) {
		code, resp := api.do(t, http.MethodPut, fmt.Sprintf("/api/admin/rooms/%d", roomID), api.admin, map[string]float64{"price": -5})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "price")
	})

	t.Run("delete bad id", func(t *testing.T) {
		code, resp := api.do(t, http.MethodDelete, "/api/admin/rooms/x", api.admin, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_ID", resp.Error.Code)
	})

	t.Run("delete missing room", func(t *testing.T) {
		code, resp := api.do(t, http.MethodDelete, "/api/admin/rooms/999999", api.admin, nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("delete room", func(t *testing.T) {
		code, _ := api.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/rooms/%d", roomID), api.admin, nil)
		require.Equal(t, http.StatusOK, code)

		code, _ = api.do(t, http.MethodGet, fmt.Sprintf("/api/reservation/get?room=%d", roomID), "", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestAdminEstablishmentRoutes(t *testing.T) {
	api := setupCatalogRouter(t)

	code, resp := api.do(t, http.MethodPost, "/api/admin/establishments", api.admin, map[string]any{
		"name": "Hôtel Test", "address": "3 rue", "city": "Lyon", "country": "France", "category": "castle",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	code, resp = api.do(t, http.MethodPut, "/api/admin/establishments/999999", api.admin, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	code, resp = api.do(t, http.MethodDelete, "/api/admin/establishments/999999", api.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}
