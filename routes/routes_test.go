package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"chessclass/config"
	"chessclass/database"
	"chessclass/services"
	"chessclass/services/mail"
	"chessclass/services/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app    *fiber.App
	sender *mail.ConsoleSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		StoreDriver:   config.StoreWorkbook,
		WorkbookPath:  filepath.Join(dir, "chess_students.xlsx"),
		ReportsDir:    filepath.Join(dir, "reports"),
		SummaryDir:    dir,
		JWTSecret:     "0123456789abcdef",
		JWTExpiresIn:  time.Hour,
		AdminUsername: "admin",
		EmailReceiver: "office@example.com",
		AppEnv:        "development",
	}
	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })

	store, err := database.NewWorkbookStore(cfg.WorkbookPath, nil)
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()

	sender := mail.NewConsoleSender("Chess", "club@example.com")
	app := fiber.New()
	SetupRoutes(app, services.NewContainer(cfg, store, hub, nil, sender), hub)
	return &testApp{app: app, sender: sender}
}

func (ta *testApp) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req, 10000)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestStudentRoutes(t *testing.T) {
	ta := newTestApp(t)

	resp, _ := ta.do(t, "POST", "/api/students", map[string]interface{}{
		"name": "Ana Soto", "rut": "11-1", "section": "A", "course": "3A",
		"classes_per_week": 2, "class_price": 25000, "birth_date": "2012-03-04",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = ta.do(t, "POST", "/api/students", map[string]interface{}{"name": "Ben", "rut": "22-2", "section": "B"})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := ta.do(t, "POST", "/api/students", map[string]interface{}{"name": "Copy", "rut": "11-1"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, body)

	resp, _ = ta.do(t, "POST", "/api/students", map[string]interface{}{"name": "Bad", "rut": "33-3", "email": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.do(t, "POST", "/api/students", map[string]interface{}{"name": "Bad date", "rut": "44-4", "birth_date": "04/03/2012"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = ta.do(t, "POST", "/api/students", map[string]interface{}{"name": "No Rut", "classes_per_week": 1, "class_price": 10000})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "rut is required")

	resp, body = ta.do(t, "GET", "/api/students?section=A", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	resp, body = ta.do(t, "GET", "/api/filters", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"A", "B"}, body["sections"])

	resp, body = ta.do(t, "PUT", "/api/students/22-2", map[string]interface{}{"phone": "+56 9 1234"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	student := body["student"].(map[string]interface{})
	assert.Equal(t, "+56 9 1234", student["phone"])
	assert.Equal(t, "B", student["section"])

	resp, _ = ta.do(t, "PUT", "/api/students/99-9", map[string]interface{}{"phone": "1"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = ta.do(t, "DELETE", "/api/students/22-2", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, body = ta.do(t, "GET", "/api/students", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
}

func TestAttendanceRoutes(t *testing.T) {
	ta := newTestApp(t)

	resp, body := ta.do(t, "GET", "/api/attendance/history", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "No attendance records yet", body["message"])

	ta.do(t, "POST", "/api/students", map[string]interface{}{"name": "Ana", "rut": "1"})

	resp, _ = ta.do(t, "POST", "/api/attendance", map[string]interface{}{
		"date":    "2024-05-01",
		"entries": []map[string]string{{"rut": "1", "status": "Present"}},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = ta.do(t, "POST", "/api/attendance", map[string]interface{}{
		"date":    "2024-05-01",
		"entries": []map[string]string{{"rut": "1", "status": "Absent"}},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = ta.do(t, "GET", "/api/attendance/history", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	history := body["history"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, "Absent", history[0].(map[string]interface{})["status"])
	assert.Equal(t, "Ana", history[0].(map[string]interface{})["name"])

	resp, _ = ta.do(t, "POST", "/api/attendance", map[string]interface{}{"date": "May 1", "entries": []interface{}{}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.do(t, "POST", "/api/attendance", map[string]interface{}{
		"date":    "2024-05-02",
		"entries": []map[string]string{{"rut": "1", "status": "Sleeping"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPaymentsAndReconciliationRoutes(t *testing.T) {
	ta := newTestApp(t)
	ta.do(t, "POST", "/api/students", map[string]interface{}{
		"name": "Student A", "rut": "A", "classes_per_week": 2, "class_price": 25000, "guardian_email": "mom@example.com",
	})

	resp, _ := ta.do(t, "POST", "/api/payments", map[string]interface{}{
		"month": "05-2024", "entries": []map[string]interface{}{{"rut": "A", "amount": 150000}},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := ta.do(t, "GET", "/api/payments/05-2024", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	resp, body = ta.do(t, "GET", "/api/students/A/statement?month=05-2024", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(200000), body["expected_charge"])
	assert.Equal(t, float64(50000), body["debt"])

	resp, body = ta.do(t, "GET", "/api/delinquents?month=05-2024", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	ta.do(t, "POST", "/api/payments", map[string]interface{}{
		"month": "05-2024", "entries": []map[string]interface{}{{"rut": "A", "amount": 200000}},
	})
	resp, body = ta.do(t, "GET", "/api/delinquents?month=05-2024", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["total"])

	resp, _ = ta.do(t, "POST", "/api/payments", map[string]interface{}{
		"month": "05-2024", "entries": []map[string]interface{}{{"rut": "A", "amount": -5}},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.do(t, "GET", "/api/delinquents?month=2024/05", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.do(t, "GET", "/api/reports/summary?month=05-2024&format=pdf", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Summary_05-2024.pdf")

	resp, _ = ta.do(t, "GET", "/api/students/A/statement?month=05-2024&format=pdf", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Statement_Student_A_05-2024.pdf")

	resp, body = ta.do(t, "POST", "/api/students/A/statement/email?month=05-2024", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "mom@example.com", body["to"])
	assert.Len(t, ta.sender.Sent(), 1)

	resp, _ = ta.do(t, "GET", "/api/students/ZZ/statement", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLoginAndHealth(t *testing.T) {
	ta := newTestApp(t)

	resp, body := ta.do(t, "POST", "/api/auth/login", map[string]string{"username": "admin", "password": "x"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = ta.do(t, "POST", "/api/auth/login", map[string]string{"username": "someone", "password": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body = ta.do(t, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, _ = ta.do(t, "GET", "/ws", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
