package routes

import (
	"chessclass/controllers"
	"chessclass/middleware"
	"chessclass/services"
	"chessclass/services/websocket"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, svc *services.Container, wsHub *websocket.Hub) {
	authController := &controllers.AuthController{}
	studentController := controllers.NewStudentController(svc.Roster)
	attendanceController := controllers.NewAttendanceController(svc.Attendance)
	paymentController := controllers.NewPaymentController(svc.Payments)
	reportController := controllers.NewReportController(svc.Reconciler, svc.Reports, svc.Mailer)
	healthController := controllers.NewHealthController(svc.Health)
	wsController := controllers.NewWebSocketController(wsHub)

	app.Get("/health", healthController.GetHealthStatus)

	// WebSocket, authenticated by ?token=
	app.Get("/ws", wsController.RequireUpgrade, wsController.WebSocketHandler())

	api := app.Group("/api")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	protected := api.Group("/", middleware.JWTMiddleware())
	protected.Get("/profile", authController.GetProfile)
	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/ws/stats", wsController.GetWebSocketStats)

	// Roster
	protected.Get("/filters", studentController.GetFilters)
	students := protected.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Post("/", studentController.CreateStudent)
	students.Get("/:rut", studentController.GetStudent)
	students.Put("/:rut", studentController.UpdateStudent)
	students.Delete("/:rut", studentController.DeleteStudent)

	// Per-student payment status
	students.Get("/:rut/statement", reportController.GetStatement)
	students.Post("/:rut/statement/email", reportController.EmailStatement)

	// Attendance
	attendance := protected.Group("/attendance")
	attendance.Post("/", attendanceController.RecordAttendance)
	attendance.Get("/history", attendanceController.GetHistory)

	// Payments
	payments := protected.Group("/payments")
	payments.Post("/", paymentController.RecordPayments)
	payments.Get("/:month", paymentController.GetPayments)

	// Reconciliation
	protected.Get("/delinquents", reportController.GetDelinquents)
	protected.Get("/reports/summary", reportController.GetSummary)
}
