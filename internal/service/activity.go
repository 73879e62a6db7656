package service

import (
	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
)

var activityTypes = map[string]bool{
	models.ActivityCreate:   true,
	models.ActivityUpdate:   true,
	models.ActivityDelete:   true,
	models.ActivityLogin:    true,
	models.ActivityLogout:   true,
	models.ActivityRegister: true,
	models.ActivitySystem:   true,
}

// LogActivity appends a caller-supplied activity record.
func (s *Service) LogActivity(username, action, activityType string) (*models.Activity, error) {
	if username == "" || action == "" {
		return nil, apperr.Validation("Username and action are required")
	}
	if !activityTypes[activityType] {
		return nil, apperr.Validation("Activity type is not valid")
	}

	a := &models.Activity{
		Username: username,
		Action:   action,
		Type:     activityType,
	}
	if err := s.store.CreateActivity(a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivities returns the audit log, newest first.
func (s *Service) ListActivities() ([]*models.Activity, error) {
	return s.store.ListActivities()
}

// SystemStats returns the live simulated snapshot.
func (s *Service) SystemStats() models.SystemStats {
	return s.sim.Current()
}

// OverrideSystemStats replaces the snapshot and persists the override.
func (s *Service) OverrideSystemStats(in models.SystemStats) (models.SystemStats, error) {
	current := s.sim.Set(in)
	if err := s.store.SaveSystemStats(&current); err != nil {
		return current, err
	}
	return current, nil
}
