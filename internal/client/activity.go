package client

import (
	"context"
	"net/http"

	"github.com/hwg121/taskmanagement/internal/models"
)

// logActivity records an audit entry for a completed mutation. It is
// fire-and-forget: failures are logged locally and swallowed so they
// never affect the primary operation's result.
func (c *Client) logActivity(ctx context.Context, username, action, activityType string) {
	body := map[string]string{
		"username": username,
		"action":   action,
		"type":     activityType,
	}
	if err := c.do(ctx, http.MethodPost, "/activities", body, nil); err != nil {
		c.log.Debugf("Failed to log activity %q: %v", action, err)
	}
}

// LogActivity records an audit entry for the session user, with the
// same fire-and-forget contract as the internal logging.
func (c *Client) LogActivity(ctx context.Context, action, activityType string) {
	c.logActivity(ctx, c.username, action, activityType)
}

// Activities returns the audit log for the admin dashboard.
func (c *Client) Activities(ctx context.Context) ([]*models.Activity, error) {
	activities := []*models.Activity{}
	if err := c.do(ctx, http.MethodGet, "/activities", nil, &activities); err != nil {
		return nil, c.classify(err)
	}
	return activities, nil
}

// SystemStats returns the backend's simulated resource snapshot.
func (c *Client) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	stats := &models.SystemStats{}
	if err := c.do(ctx, http.MethodGet, "/system-stats", nil, stats); err != nil {
		return nil, c.classify(err)
	}
	return stats, nil
}
