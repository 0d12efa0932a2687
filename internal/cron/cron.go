package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/service"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	services  *service.Services
	opLogRepo repository.OperationLogRepository
}

func NewScheduler(services *service.Services, opLogRepo repository.OperationLogRepository) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		services:  services,
		opLogRepo: opLogRepo,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every day at 3 AM - sweep long-expired invitations
	s.cron.AddFunc("0 3 * * *", func() {
		logrus.Info("running expired invitation sweep")
		s.sweepExpiredInvitations()
	})

	// Run every hour - report composite operations stuck mid-sequence
	s.cron.AddFunc("0 * * * *", func() {
		s.reportStaleOperations()
	})

	s.cron.Start()
	logrus.Info("scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logrus.Info("scheduler stopped")
}

func (s *Scheduler) sweepExpiredInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.services.Invitation.DeleteExpired(ctx)
	if err != nil {
		logrus.WithError(err).Error("expired invitation sweep failed")
		return
	}
	logrus.WithField("deleted", deleted).Info("expired invitation sweep complete")
}

func (s *Scheduler) reportStaleOperations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := s.opLogRepo.FindStale(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		logrus.WithError(err).Error("stale operation check failed")
		return
	}
	for _, op := range stale {
		entry := logrus.WithFields(logrus.Fields{
			"intent_id": op.ID,
			"operation": op.Operation,
			"started":   op.CreatedAt.Format(time.RFC3339),
		})
		if op.SubjectID != nil {
			entry = entry.WithField("subject_id", *op.SubjectID)
		}
		entry.Warn("operation never completed; records may need reconciliation")
	}
}
