package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AuditRetention removes audit rows past their retention period
type AuditRetention interface {
	CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// MaintenanceConfig holds the schedules of the maintenance jobs.
// Schedules use the six-field cron format (with seconds).
type MaintenanceConfig struct {
	DocumentSweepSchedule string
	DocumentSweepGrace    time.Duration
	AuditCleanupSchedule  string
	AuditRetention        time.Duration
	JobTimeout            time.Duration
}

// DefaultMaintenanceConfig returns the default maintenance schedules
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		DocumentSweepSchedule: "0 30 3 * * *",
		DocumentSweepGrace:    24 * time.Hour,
		AuditCleanupSchedule:  "0 0 4 * * 0",
		AuditRetention:        365 * 24 * time.Hour,
		JobTimeout:            10 * time.Minute,
	}
}

// SweepResult summarises one document sweep
type SweepResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// MaintenanceService runs scheduled housekeeping jobs
type MaintenanceService struct {
	cron      *cron.Cron
	config    MaintenanceConfig
	ledger    BookingLedger
	documents DocumentStore
	audit     AuditRetention
	logger    *logrus.Logger
	now       func() time.Time
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(config MaintenanceConfig, ledger BookingLedger, documents DocumentStore, audit AuditRetention, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{
		cron:      cron.New(cron.WithSeconds()),
		config:    config,
		ledger:    ledger,
		documents: documents,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc(s.config.DocumentSweepSchedule, s.documentSweepJob); err != nil {
		return fmt.Errorf("failed to schedule document sweep job: %w", err)
	}
	s.logger.WithField("schedule", s.config.DocumentSweepSchedule).Info("Scheduled: orphaned document sweep")

	if s.audit != nil {
		if _, err := s.cron.AddFunc(s.config.AuditCleanupSchedule, s.auditCleanupJob); err != nil {
			return fmt.Errorf("failed to schedule audit cleanup job: %w", err)
		}
		s.logger.WithField("schedule", s.config.AuditCleanupSchedule).Info("Scheduled: audit log cleanup")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler stopped")
}

// SweepOrphanedDocuments deletes stored documents that no booking
// references and that are older than the grace period. The grace period
// keeps uploads of an in-flight check-in out of reach.
func (s *MaintenanceService) SweepOrphanedDocuments(ctx context.Context) (*SweepResult, error) {
	objects, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}

	referenced, err := s.ledger.ReferencedDocumentRefs(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.config.DocumentSweepGrace)
	result := &SweepResult{Scanned: len(objects)}
	for _, obj := range objects {
		if _, ok := referenced[obj.Ref]; ok {
			continue
		}
		if obj.ModTime.After(cutoff) {
			continue
		}
		if err := s.documents.Delete(ctx, obj.Ref); err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("ref", obj.Ref).Warn("Failed to delete orphaned document")
			continue
		}
		result.Deleted++
	}

	return result, nil
}

func (s *MaintenanceService) documentSweepJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.SweepOrphanedDocuments(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Orphaned document sweep failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"scanned":     result.Scanned,
		"deleted":     result.Deleted,
		"failed":      result.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Orphaned document sweep finished")
}

func (s *MaintenanceService) auditCleanupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	deleted, err := s.audit.CleanupOldAuditLogs(ctx, s.config.AuditRetention)
	if err != nil {
		s.logger.WithError(err).Error("Audit log cleanup failed")
		return
	}
	s.logger.WithField("deleted", deleted).Info("Audit log cleanup finished")
}

// GetJobStatus returns the status of scheduled jobs
func (s *MaintenanceService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
