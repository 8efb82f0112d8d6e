package services

import (
	"context"
	"os"
	"strings"
	"time"

	"chessclass/config"
	"chessclass/database"
)

const (
	overallStatusOK       = "ok"
	overallStatusDegraded = "degraded"
	overallStatusCritical = "critical"

	dependencyStatusUp   = "up"
	dependencyStatusDown = "down"

	defaultServiceName = "Chess Class API"
	defaultVersion     = "1.0.0"
	defaultTimeout     = 1500 * time.Millisecond
)

// HealthService reports whether the record store and its write lock are usable.
type HealthService struct {
	store       database.Store
	serviceName string
	version     string
	startTime   time.Time
	timeout     time.Duration
}

type HealthReport struct {
	Status        string      `json:"status"`
	Service       string      `json:"service"`
	Version       string      `json:"version"`
	Environment   string      `json:"environment"`
	Time          time.Time   `json:"time"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Store         StoreHealth `json:"store"`
	Lock          LockHealth  `json:"lock"`
	Flags         HealthFlags `json:"flags"`
}

// StoreHealth describes the record store. Workbook and Pool are filled for their driver only.
type StoreHealth struct {
	Driver    string          `json:"driver"`
	Status    string          `json:"status"`
	LatencyMs int64           `json:"latency_ms"`
	Error     string          `json:"error,omitempty"`
	Students  int             `json:"students"`
	Workbook  *WorkbookHealth `json:"workbook,omitempty"`
	Pool      *PoolStats      `json:"pool,omitempty"`
}

type WorkbookHealth struct {
	Path             string    `json:"path"`
	SizeBytes        int64     `json:"size_bytes"`
	ModifiedAt       time.Time `json:"modified_at"`
	AttendanceSheets int       `json:"attendance_sheets"`
	PaymentSheets    int       `json:"payment_sheets"`
}

type PoolStats struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// LockHealth reports which lock guards workbook writes and whether Redis answers.
type LockHealth struct {
	Mode      string `json:"mode"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Address   string `json:"address,omitempty"`
	Error     string `json:"error,omitempty"`
}

type HealthFlags struct {
	StoreDriver    string `json:"store_driver"`
	RedisLocking   bool   `json:"redis_locking"`
	ReportArchive  bool   `json:"report_archive"`
	BackupSchedule string `json:"backup_schedule,omitempty"`
}

func NewHealthService(store database.Store, serviceName, version string) *HealthService {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultServiceName
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}
	return &HealthService{
		store:       store,
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		timeout:     defaultTimeout,
	}
}

// GetHealthReport probes the store and the lock within the service timeout.
func (s *HealthService) GetHealthReport() HealthReport {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report := HealthReport{
		Status:        overallStatusOK,
		Service:       s.serviceName,
		Version:       s.version,
		Environment:   currentEnvironment(),
		Time:          time.Now().UTC(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Flags:         collectFlags(),
	}

	var storeStatus, lockStatus string
	report.Store, storeStatus = s.checkStore(ctx)
	report.Lock, lockStatus = checkLock(ctx)
	report.Status = combineStatus(combineStatus(report.Status, storeStatus), lockStatus)
	return report
}

// HTTPStatusForOverall maps a health status to an HTTP status code.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == overallStatusCritical {
		return 503
	}
	return 200
}

func (s *HealthService) checkStore(ctx context.Context) (StoreHealth, string) {
	h := StoreHealth{Driver: storeDriver()}
	if s.store == nil {
		h.Status = dependencyStatusDown
		h.Error = "record store not initialised"
		return h, overallStatusCritical
	}

	start := time.Now()
	students, err := probeStore(ctx, s.store)
	h.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		h.Status = dependencyStatusDown
		h.Error = err.Error()
		return h, overallStatusCritical
	}
	h.Status = dependencyStatusUp
	h.Students = students

	switch st := s.store.(type) {
	case *database.WorkbookStore:
		h.Workbook = workbookHealth(st)
	case *database.SQLStore:
		if sqlDB, err := st.DB().DB(); err == nil {
			stats := sqlDB.Stats()
			h.Pool = &PoolStats{
				OpenConnections: stats.OpenConnections,
				InUse:           stats.InUse,
				Idle:            stats.Idle,
				WaitCount:       stats.WaitCount,
			}
		}
	}
	return h, overallStatusOK
}

func workbookHealth(ws *database.WorkbookStore) *WorkbookHealth {
	h := &WorkbookHealth{Path: ws.Path()}
	if info, err := os.Stat(ws.Path()); err == nil {
		h.SizeBytes = info.Size()
		h.ModifiedAt = info.ModTime().UTC()
	}
	names, err := ws.SheetNames()
	if err != nil {
		return h
	}
	for _, name := range names {
		switch {
		case strings.HasPrefix(name, database.AttendanceSheetPrefix):
			h.AttendanceSheets++
		case strings.HasPrefix(name, database.PaymentSheetPrefix):
			h.PaymentSheets++
		}
	}
	return h
}

// probeStore reads the roster, giving up when ctx expires.
func probeStore(ctx context.Context, store database.Store) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		students, err := store.ListStudents()
		done <- result{len(students), err}
	}()
	select {
	case r := <-done:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// checkLock degrades the report when Redis was configured for locking but does not answer.
func checkLock(ctx context.Context) (LockHealth, string) {
	client := database.GetRedisClient()
	configured := config.AppConfig != nil && config.AppConfig.RedisHost != ""

	if client == nil {
		if configured {
			return LockHealth{Mode: "redis", Status: dependencyStatusDown, Error: "redis client not initialised"}, overallStatusDegraded
		}
		return LockHealth{Mode: "in-process", Status: dependencyStatusUp}, overallStatusOK
	}

	h := LockHealth{Mode: "redis", Address: client.Options().Addr}
	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := client.Ping(pingCtx).Err()
	h.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		h.Status = dependencyStatusDown
		h.Error = err.Error()
		return h, overallStatusDegraded
	}
	h.Status = dependencyStatusUp
	return h, overallStatusOK
}

func collectFlags() HealthFlags {
	if config.AppConfig == nil {
		return HealthFlags{StoreDriver: config.StoreWorkbook}
	}
	return HealthFlags{
		StoreDriver:    storeDriver(),
		RedisLocking:   database.GetRedisClient() != nil,
		ReportArchive:  config.AppConfig.S3Enabled(),
		BackupSchedule: config.AppConfig.BackupCron,
	}
}

func storeDriver() string {
	if config.AppConfig == nil || config.AppConfig.StoreDriver == "" {
		return config.StoreWorkbook
	}
	return config.AppConfig.StoreDriver
}

func currentEnvironment() string {
	if config.AppConfig == nil || strings.TrimSpace(config.AppConfig.AppEnv) == "" {
		return "unknown"
	}
	return strings.TrimSpace(config.AppConfig.AppEnv)
}

var statusRank = map[string]int{
	overallStatusOK:       0,
	overallStatusDegraded: 1,
	overallStatusCritical: 2,
}

// combineStatus keeps the worse of the two statuses.
func combineStatus(current, candidate string) string {
	if statusRank[candidate] > statusRank[current] {
		return candidate
	}
	return current
}
