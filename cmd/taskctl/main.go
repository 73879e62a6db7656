// Command taskctl is a small command-line frontend for the task
// management API. A session obtained with "taskctl login" is stored in
// the user's home directory and reused by later invocations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hwg121/taskmanagement/internal/client"
	"github.com/sirupsen/logrus"
)

const usage = `Usage: taskctl [-server URL] <command> [args]

Commands:
  register <username> <email> <password>
  login <username> <password>        log in and store the session
  logout                             log out and clear the session
  tasks [-status S] [-priority P] [-q TEXT]
  add <title> [-desc D] [-priority P] [-category C] [-due YYYY-MM-DD]
  done <taskID>                      mark a task completed
  rm <taskID>                        delete a task
  users                              list users (admin)
  activities                         show the activity log (admin)
  stats                              show system stats
`

type session struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskctl-session.json"
	}
	return filepath.Join(home, ".taskctl-session.json")
}

func loadSession(c *client.Client) {
	data, err := os.ReadFile(sessionPath())
	if err != nil {
		return
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return
	}
	c.SetSession(s.UserID, s.Username, s.Token)
}

func saveSession(s session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), data, 0o600)
}

func main() {
	server := flag.String("server", "http://localhost:3001", "API base URL")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	c := client.New(*server, logger)
	loadSession(c)

	ctx := context.Background()
	if err := run(ctx, c, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) error {
	switch cmd {
	case "register":
		if len(args) < 3 {
			return fmt.Errorf("usage: register <username> <email> <password>")
		}
		user, err := c.Register(ctx, args[0], args[1], args[2], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s (id %d)\n", user.Username, user.ID)
		return nil

	case "login":
		if len(args) < 2 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		user, err := c.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", user.Username)
		return saveSession(session{UserID: user.ID, Username: user.Username, Token: c.Token()})

	case "logout":
		c.Logout(ctx)
		return os.Remove(sessionPath())

	case "tasks":
		fs := flag.NewFlagSet("tasks", flag.ExitOnError)
		status := fs.String("status", "", "filter by status")
		priority := fs.String("priority", "", "filter by priority")
		q := fs.String("q", "", "search text")
		_ = fs.Parse(args)
		tasks, err := c.Tasks(ctx, client.TaskFilters{Status: *status, Priority: *priority, Search: *q})
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%5d  [%-11s] %-8s %-8s  %s  (due %s)\n",
				t.ID, t.Status, t.Priority, t.Category, t.Title, t.DueDate)
		}
		return nil

	case "add":
		if len(args) < 1 {
			return fmt.Errorf("usage: add <title> [flags]")
		}
		title := args[0]
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		desc := fs.String("desc", "", "description")
		priority := fs.String("priority", "medium", "low|medium|high")
		category := fs.String("category", "other", "task category")
		due := fs.String("due", "", "due date YYYY-MM-DD")
		_ = fs.Parse(args[1:])
		task, err := c.CreateTask(ctx, client.TaskInput{
			Title:       title,
			Description: *desc,
			Priority:    *priority,
			Status:      "todo",
			Category:    *category,
			DueDate:     *due,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created task %d: %s\n", task.ID, task.Title)
		return nil

	case "done":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		completed := "completed"
		task, err := c.UpdateTask(ctx, id, client.TaskUpdate{Status: &completed})
		if err != nil {
			return err
		}
		fmt.Printf("Completed task %d: %s\n", task.ID, task.Title)
		return nil

	case "rm":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := c.DeleteTask(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted task %d\n", id)
		return nil

	case "users":
		users, err := c.Users(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%5d  %-20s %-30s %s  last login %s\n",
				u.ID, u.Username, u.Email, u.Role, u.LastLogin.Format("2006-01-02 15:04"))
		}
		return nil

	case "activities":
		activities, err := c.Activities(ctx)
		if err != nil {
			return err
		}
		for _, a := range activities {
			fmt.Printf("%s  %-10s %-12s %s\n",
				a.Timestamp.Format("2006-01-02 15:04:05"), a.Type, a.Username, a.Action)
		}
		return nil

	case "stats":
		stats, err := c.SystemStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("CPU %d%%  RAM %d%%  Disk %d%%  Network %d%%  (as of %s)\n",
			stats.CPUUsage, stats.RAMUsage, stats.DiskUsage, stats.NetworkUsage,
			stats.LastUpdated.Format("15:04:05"))
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("task id required")
	}
	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		return 0, fmt.Errorf("task id must be numeric")
	}
	return id, nil
}
