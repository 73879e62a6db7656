package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/validate"
)

// loginResult mirrors the login response body.
type loginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Login authenticates and stores the session on success.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, c.classify(apperr.Validation("Username and password are required"))
	}
	if !validate.Username(username) {
		return nil, c.classify(apperr.Validation("Username must be 3-20 characters: letters, numbers and underscore"))
	}
	if len(password) < 6 {
		return nil, c.classify(apperr.Validation("Password must be at least 6 characters"))
	}

	if err := c.checkRateLimit("login", username); err != nil {
		return nil, c.classify(err)
	}

	var result loginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &result); err != nil {
		return nil, c.classify(err)
	}

	c.SetSession(result.User.ID, result.User.Username, result.Token)
	return result.User, nil
}

// Register creates a new account. The caller stays logged out.
func (c *Client) Register(ctx context.Context, username, email, password, confirmPassword string) (*models.User, error) {
	if username == "" || email == "" || password == "" || confirmPassword == "" {
		return nil, c.classify(apperr.Validation("All fields are required"))
	}
	if !validate.Username(username) {
		return nil, c.classify(apperr.Validation("Username must be 3-20 characters: letters, numbers and underscore"))
	}
	if !validate.Email(email) {
		return nil, c.classify(apperr.Validation("Email address is not valid"))
	}
	if password != confirmPassword {
		return nil, c.classify(apperr.Validation("Password and confirmation do not match"))
	}
	if !validate.Password(password) {
		return nil, c.classify(apperr.Validation("Password must be at least 8 characters with uppercase, lowercase, number and special character"))
	}

	if err := c.checkRateLimit("register", username); err != nil {
		return nil, c.classify(err)
	}

	user := &models.User{}
	body := map[string]string{
		"username": validate.Sanitize(username),
		"email":    validate.Sanitize(email),
		"password": password,
	}
	if err := c.do(ctx, http.MethodPost, "/register", body, user); err != nil {
		return nil, c.classify(err)
	}
	return user, nil
}

// ChangePassword updates the session user's password after verifying
// the current one server-side.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return c.classify(apperr.Validation("All fields are required"))
	}
	if newPassword != confirmPassword {
		return c.classify(apperr.Validation("New password and confirmation do not match"))
	}
	if !validate.Password(newPassword) {
		return c.classify(apperr.Validation("Password must be at least 8 characters with uppercase, lowercase, number and special character"))
	}

	id := strconv.FormatInt(c.userID, 10)
	if err := c.checkRateLimit("changePassword", id); err != nil {
		return c.classify(err)
	}

	body := map[string]string{
		"password":        newPassword,
		"currentPassword": currentPassword,
	}
	if err := c.do(ctx, http.MethodPatch, "/users/"+id, body, nil); err != nil {
		return c.classify(err)
	}

	c.logActivity(ctx, c.username, "Changed password", models.ActivityUpdate)
	return nil
}

// VerifySession reports whether the stored user id and token still name
// a live session. Errors are swallowed; they just mean "no".
func (c *Client) VerifySession(ctx context.Context, userID int64, token string) bool {
	saved := c.token
	c.token = token
	defer func() { c.token = saved }()

	user := &models.User{}
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.FormatInt(userID, 10), nil, user); err != nil {
		c.log.Debugf("Session verification failed: %v", err)
		return false
	}
	return user.ID == userID
}

// Logout records the logout and clears the session.
func (c *Client) Logout(ctx context.Context) {
	if c.token == "" {
		return
	}
	if err := c.do(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		c.log.Debugf("Logout failed: %v", err)
	}
	c.SetSession(0, "", "")
}

// Users lists all accounts (admin dashboard).
func (c *Client) Users(ctx context.Context) ([]*models.User, error) {
	if err := c.checkRateLimit("getUsers", "admin"); err != nil {
		return nil, c.classify(err)
	}

	users := []*models.User{}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, c.classify(err)
	}
	return users, nil
}

// UserUpdate carries a partial admin user mutation.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateUser applies an admin update to a user.
func (c *Client) UpdateUser(ctx context.Context, userID int64, upd UserUpdate) (*models.User, error) {
	if upd.Username != nil && !validate.Username(*upd.Username) {
		return nil, c.classify(apperr.Validation("Username must be 3-20 characters: letters, numbers and underscore"))
	}
	if upd.Email != nil && !validate.Email(*upd.Email) {
		return nil, c.classify(apperr.Validation("Email address is not valid"))
	}
	if upd.Password != nil && !validate.Password(*upd.Password) {
		return nil, c.classify(apperr.Validation("Password must be at least 8 characters with uppercase, lowercase, number and special character"))
	}

	if err := c.checkRateLimit("updateUser", "admin"); err != nil {
		return nil, c.classify(err)
	}

	if upd.Username != nil {
		s := validate.Sanitize(*upd.Username)
		upd.Username = &s
	}
	if upd.Email != nil {
		s := validate.Sanitize(*upd.Email)
		upd.Email = &s
	}

	user := &models.User{}
	path := "/users/" + strconv.FormatInt(userID, 10)
	if err := c.do(ctx, http.MethodPatch, path, upd, user); err != nil {
		return nil, c.classify(err)
	}

	c.logActivity(ctx, models.RoleAdmin, fmt.Sprintf("Updated user: %s", user.Username), models.ActivityUpdate)
	return user, nil
}

// DeleteUser removes an account. The admin account is refused before
// any request is made.
func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	if err := c.checkRateLimit("deleteUser", "admin"); err != nil {
		return c.classify(err)
	}

	user := &models.User{}
	path := "/users/" + strconv.FormatInt(userID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, user); err != nil {
		return c.classify(err)
	}
	if user.IsAdmin() {
		return c.classify(apperr.Permission("The admin account cannot be deleted"))
	}

	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return c.classify(err)
	}

	c.logActivity(ctx, models.RoleAdmin, fmt.Sprintf("Deleted user ID: %d", userID), models.ActivityDelete)
	return nil
}
