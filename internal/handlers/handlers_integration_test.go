package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"easyhomes/internal/handlers"
	"easyhomes/internal/models"
	"easyhomes/internal/repositories"
	"easyhomes/internal/services"
	"easyhomes/pkg/blobstore"
	"easyhomes/pkg/config"
	"easyhomes/pkg/database"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// setupApp wires handlers and services over an in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	userRepo := repositories.NewGORMUserRepository(db)
	homeRepo := repositories.NewGORMHomeRepository(db)
	commitRepo := repositories.NewGORMCommitRepository(db)

	commitService := services.NewCommitService(commitRepo, homeRepo, userRepo, blobstore.NewMemoryStore(), services.CommitServiceOptions{
		Logger:         log,
		MaxUploadBytes: 1 << 20,
	})

	validate := validator.New()
	app := fiber.New()
	handlers.NewHomeHandler(services.NewHomeService(homeRepo), validate, log).RegisterRoutes(app)
	handlers.NewUserHandler(services.NewUserService(userRepo), validate, log).RegisterRoutes(app)
	handlers.NewCommitHandler(commitService, log, 1<<20).RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// commitForm builds a multipart body; a nil screenshot omits the file part.
func commitForm(t *testing.T, fields map[string]string, screenshot []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if screenshot != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="screenshot"; filename="payment.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(screenshot)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postCommit(t *testing.T, app *fiber.App, fields map[string]string, screenshot []byte, idempotencyKey string) *http.Response {
	t.Helper()
	body, contentType := commitForm(t, fields, screenshot)
	req := httptest.NewRequest(http.MethodPost, "/commit/post", body)
	req.Header.Set("Content-Type", contentType)
	if idempotencyKey != "" {
		req.Header.Set(handlers.IdempotencyKeyHeader, idempotencyKey)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func createHome(t *testing.T, app *fiber.App, body map[string]interface{}) models.Home {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/homes/post", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var home models.Home
	decode(t, resp, &home)
	return home
}

func createUser(t *testing.T, app *fiber.App, email string) models.User {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/users/post", map[string]string{
		"email":    email,
		"name":     "Asha",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	decode(t, resp, &out)
	return out.User
}

func TestHomesCRUD(t *testing.T) {
	app := setupApp(t)

	a := createHome(t, app, map[string]interface{}{
		"title": "Cosy room", "street": "MG Road", "town": "Pune", "state": "MH",
		"pincode": 411001, "rentprice": 2000,
		"images": []map[string]string{{"base64": "aGVsbG8=", "contentType": "image/jpeg"}},
		"renter": map[string]string{"firstname": "Ravi", "lastname": "K"},
	})
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.Pincode("411001"), a.Pincode)
	require.NotNil(t, a.Renter)
	assert.NotEmpty(t, a.Renter.ID)

	createHome(t, app, map[string]interface{}{
		"title": "Big flat", "street": "FC Road", "town": "Pune", "state": "MH",
		"pincode": "411004", "rentprice": 8000,
	})

	resp := doJSON(t, app, http.MethodGet, "/homes/get", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var homes []models.Home
	decode(t, resp, &homes)
	require.Len(t, homes, 2)
	assert.Equal(t, "Cosy room", homes[0].Title)
	assert.Len(t, homes[0].Images, 1)
	assert.Nil(t, homes[1].Renter)
	assert.NotNil(t, homes[1].Images)

	// update releases the renter
	resp = doJSON(t, app, http.MethodPut, "/homes/update/"+a.ID, map[string]interface{}{
		"title": "Cosy room", "street": "MG Road", "town": "Pune", "state": "MH",
		"pincode": "411001", "rentprice": 2500,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/homes/get/"+a.ID, nil)
	var updated models.Home
	decode(t, resp, &updated)
	assert.Equal(t, 2500.0, updated.RentPrice)
	assert.Nil(t, updated.Renter)
	assert.Empty(t, updated.Images)

	resp = doJSON(t, app, http.MethodDelete, "/homes/delete/"+a.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/homes/get/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateHomeRenter(t *testing.T) {
	app := setupApp(t)

	base := map[string]interface{}{
		"title": "Claimed flat", "street": "Park St", "town": "Kolkata", "state": "WB", "pincode": "700016",
	}
	claimed := createHome(t, app, map[string]interface{}{
		"title": "Claimed flat", "street": "Park St", "town": "Kolkata", "state": "WB", "pincode": "700016",
		"renter": map[string]string{"firstname": "Mita"},
	})
	other := createHome(t, app, base)

	// renter edited without its id keeps the id
	base["renter"] = map[string]string{"firstname": "Mita", "lastname": "Das"}
	resp := doJSON(t, app, http.MethodPut, "/homes/update/"+claimed.ID, base)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Home
	decode(t, resp, &updated)
	require.NotNil(t, updated.Renter)
	assert.Equal(t, claimed.Renter.ID, updated.Renter.ID)

	// another listing cannot take over that renter
	base["renter"] = map[string]string{"_id": claimed.Renter.ID, "firstname": "Mita"}
	resp = doJSON(t, app, http.MethodPut, "/homes/update/"+other.ID, base)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateHomeValidation(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/homes/post", map[string]interface{}{
		"title": "No address", "rentprice": -5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "Validation failed", body["message"])
}

func TestUsers(t *testing.T) {
	app := setupApp(t)

	user := createUser(t, app, "asha@example.com")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.DefaultRole, user.Role)
	assert.Empty(t, user.Password)

	// duplicate email
	resp := doJSON(t, app, http.MethodPost, "/users/post", map[string]string{
		"email": "asha@example.com", "name": "Other", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// password may be omitted for an OAuth identity only
	resp = doJSON(t, app, http.MethodPost, "/users/post", map[string]string{
		"email": "nopass@example.com", "name": "No Pass",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/users/post", map[string]string{
		"email": "google@example.com", "name": "G", "googleId": "g-123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/users/get/"+user.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret123")
	assert.Contains(t, string(raw), `"commits":[]`)
}

func TestCommitFlow(t *testing.T) {
	app := setupApp(t)

	user := createUser(t, app, "booker@example.com")
	claimed := createHome(t, app, map[string]interface{}{
		"title": "Claimed flat", "street": "Park St", "town": "Kolkata", "state": "WB",
		"pincode": "700016", "rentprice": 4000,
		"renter": map[string]string{"firstname": "Mita"},
	})
	free := createHome(t, app, map[string]interface{}{
		"title": "Free flat", "street": "Lake Rd", "town": "Kolkata", "state": "WB",
		"pincode": "700029", "rentprice": 3000,
	})

	fields := map[string]string{
		"userId":   user.ID,
		"renterId": claimed.Renter.ID,
		"homeId":   claimed.ID,
	}

	t.Run("missing field", func(t *testing.T) {
		resp := postCommit(t, app, map[string]string{"userId": user.ID, "homeId": claimed.ID}, pngHeader, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body map[string]string
		decode(t, resp, &body)
		assert.Contains(t, body["error"], "renterId")
	})

	t.Run("missing screenshot", func(t *testing.T) {
		resp := postCommit(t, app, fields, nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("listing without renter", func(t *testing.T) {
		resp := postCommit(t, app, map[string]string{
			"userId": user.ID, "renterId": claimed.Renter.ID, "homeId": free.ID,
		}, pngHeader, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := postCommit(t, app, map[string]string{
			"userId": "00000000-0000-0000-0000-000000000000", "renterId": claimed.Renter.ID, "homeId": claimed.ID,
		}, pngHeader, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	var first models.Commit
	t.Run("created", func(t *testing.T) {
		resp := postCommit(t, app, fields, pngHeader, "session-1")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		decode(t, resp, &first)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, claimed.ID, first.HomeID)
		assert.Equal(t, "image/png", first.Screenshot.ContentType)
	})

	t.Run("idempotent retry", func(t *testing.T) {
		resp := postCommit(t, app, fields, pngHeader, "session-1")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var again models.Commit
		decode(t, resp, &again)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("key reused for another booking", func(t *testing.T) {
		other := createUser(t, app, "other@example.com")
		resp := postCommit(t, app, map[string]string{
			"userId": other.ID, "renterId": claimed.Renter.ID, "homeId": claimed.ID,
		}, pngHeader, "session-1")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var body map[string]string
		decode(t, resp, &body)
		assert.NotContains(t, body, "_id")
	})

	t.Run("no key creates a duplicate", func(t *testing.T) {
		resp := postCommit(t, app, fields, pngHeader, "")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("listing and lookups", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/commit/getall", nil)
		var all []models.Commit
		decode(t, resp, &all)
		assert.Len(t, all, 2)

		resp = doJSON(t, app, http.MethodGet, "/commit/user/"+user.ID, nil)
		var mine []models.Commit
		decode(t, resp, &mine)
		require.Len(t, mine, 2)
		assert.Equal(t, first.ID, mine[0].ID)

		resp = doJSON(t, app, http.MethodGet, "/users/get/"+user.ID, nil)
		var u models.User
		decode(t, resp, &u)
		require.Len(t, u.CommitIDs, 2)
		assert.Equal(t, first.ID, u.CommitIDs[0])

		resp = doJSON(t, app, http.MethodGet, "/commit/get/"+first.ID, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("screenshot download", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/commit/screenshot/"+first.ID, nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, body)
	})
}
