// Package main provides crmctl, a terminal client for the admissions CRM
// API. It drives the same session, gateway and resource services the
// dashboard embeds, with credentials persisted under the user's home
// directory between invocations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"admitcrm/internal/access"
	"admitcrm/internal/activities"
	"admitcrm/internal/admin"
	"admitcrm/internal/applications"
	"admitcrm/internal/auth"
	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/leads"
	"admitcrm/internal/notify"
	"admitcrm/internal/platform/config"
	"admitcrm/internal/platform/logger"
	"admitcrm/internal/platform/metrics"
	"admitcrm/internal/reports"
	"admitcrm/internal/session"
	"admitcrm/internal/tasks"
)

// app bundles the wired client stack for command handlers.
type app struct {
	cfg     config.Client
	session *session.Session
	gw      *gateway.Client

	auth         *auth.Service
	leads        *leads.Service
	tasks        *tasks.Service
	activities   *activities.Service
	applications *applications.Service
	reports      *reports.Service
	admin        *admin.Service
}

func newApp() (*app, error) {
	cfg := config.FromEnv()
	log := logger.New()

	keyring, err := session.OpenFileKeyring(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	sess := session.New(keyring)
	notifier := notify.NewLogger(log)

	gw := gateway.New(cfg, keyring, log,
		gateway.WithMetrics(metrics.New(prometheus.NewRegistry())),
		gateway.WithLogoutHandler(func() {
			sess.Dispatch(session.Logout{})
		}),
	)

	return &app{
		cfg:          cfg,
		session:      sess,
		gw:           gw,
		auth:         auth.NewService(gw, keyring, sess, notifier),
		leads:        leads.NewService(gw, leads.NewStore(), notifier),
		tasks:        tasks.NewService(gw, tasks.NewStore(), notifier),
		activities:   activities.NewService(gw, activities.NewStore(), notifier),
		applications: applications.NewService(gw, applications.NewStore(), notifier),
		reports:      reports.NewService(gw, notifier),
		admin:        admin.NewService(gw, notifier),
	}, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "login":
		err = a.cmdLogin(ctx, os.Args[2:])
	case "logout":
		err = a.cmdLogout()
	case "whoami":
		err = a.cmdWhoami(ctx)
	case "leads":
		err = a.cmdLeads(ctx, os.Args[2:])
	case "tasks":
		err = a.cmdTasks(ctx, os.Args[2:])
	case "applications":
		err = a.cmdApplications(ctx, os.Args[2:])
	case "activities":
		err = a.cmdActivities(ctx, os.Args[2:])
	case "dashboard":
		err = a.cmdDashboard(ctx)
	case "stats":
		err = a.cmdStats(ctx)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`crmctl - admissions CRM terminal client

Usage:
  crmctl <command> [flags]

Commands:
  login       Authenticate and store credentials
  logout      Clear stored credentials
  whoami      Show the current session user
  leads       List and act on leads (list, get, convert, stage)
  tasks       List and complete tasks (list, pending, complete)
  applications  List applications and update status axes (list, status)
  activities  Browse and log lead activities (lead, log)
  dashboard   Show the dashboard panels (reporting roles only)
  stats       Show system-wide stats (admin only)

Environment:
  CRM_API_URL            API base URL (default http://localhost:5000)
  CRM_CREDENTIALS_FILE   Credentials path (default ~/.admitcrm/credentials.json)
  CRM_LOG_LEVEL          debug, info, warn, error`)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, crm.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (a *app) cmdLogout() error {
	return a.auth.Logout()
}

func (a *app) cmdWhoami(ctx context.Context) error {
	if !a.session.Snapshot().IsAuthenticated {
		return fmt.Errorf("not logged in")
	}
	user, err := a.auth.RefreshUser(ctx)
	if err != nil {
		return err
	}
	return printJSON(user)
}

func (a *app) cmdLeads(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("leads requires a subcommand: list, get, convert, stage")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("leads list", flag.ExitOnError)
		search := fs.String("search", "", "Name or email search")
		stage := fs.Int("stage", 0, "Filter by stage id")
		status := fs.String("status", "", "Filter by status")
		page := fs.Int("page", 1, "Page number")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		result, err := a.leads.List(ctx, leads.Filters{
			Search:  *search,
			StageID: *stage,
			Status:  crm.LeadStatus(*status),
			Page:    *page,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	case "get":
		fs := flag.NewFlagSet("leads get", flag.ExitOnError)
		id := fs.Int("id", 0, "Lead id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		lead, err := a.leads.Get(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(lead)
	case "convert":
		fs := flag.NewFlagSet("leads convert", flag.ExitOnError)
		id := fs.Int("id", 0, "Lead id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		app, err := a.leads.Convert(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(app)
	case "stage":
		fs := flag.NewFlagSet("leads stage", flag.ExitOnError)
		id := fs.Int("id", 0, "Lead id")
		stage := fs.Int("stage", 0, "Target stage id")
		old := fs.Int("old", 0, "Previous stage id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		lead, err := a.leads.ChangeStage(ctx, *id, *stage, *old)
		if err != nil {
			return err
		}
		return printJSON(lead)
	default:
		return fmt.Errorf("unknown leads subcommand: %s", args[0])
	}
}

func (a *app) cmdTasks(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("tasks requires a subcommand: list, pending, complete")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("tasks list", flag.ExitOnError)
		status := fs.String("status", "", "Filter by status")
		overdue := fs.Bool("overdue", false, "Only overdue tasks")
		page := fs.Int("page", 1, "Page number")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		result, err := a.tasks.List(ctx, tasks.Filters{
			Status:  crm.TaskStatus(*status),
			Overdue: *overdue,
			Page:    *page,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	case "pending":
		pending, err := a.tasks.Pending(ctx)
		if err != nil {
			return err
		}
		return printJSON(pending)
	case "complete":
		fs := flag.NewFlagSet("tasks complete", flag.ExitOnError)
		id := fs.Int("id", 0, "Task id")
		notes := fs.String("notes", "", "Completion notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		task, err := a.tasks.CompleteTask(ctx, *id, *notes)
		if err != nil {
			return err
		}
		return printJSON(task)
	default:
		return fmt.Errorf("unknown tasks subcommand: %s", args[0])
	}
}

func (a *app) cmdApplications(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("applications requires a subcommand: list, status")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("applications list", flag.ExitOnError)
		overall := fs.String("overall", "", "Filter by overall status")
		page := fs.Int("page", 1, "Page number")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		result, err := a.applications.List(ctx, applications.Filters{
			OverallStatus: crm.OverallStatus(*overall),
			Page:          *page,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	case "status":
		fs := flag.NewFlagSet("applications status", flag.ExitOnError)
		id := fs.Int("id", 0, "Application id")
		document := fs.String("document", "", "Document status")
		fee := fs.String("fee", "", "Fee status")
		admission := fs.String("admission", "", "Admission status")
		enrollment := fs.String("enrollment", "", "Enrollment status")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		app, err := a.applications.UpdateStatus(ctx, *id, crm.ApplicationStatusUpdate{
			DocumentStatus:   crm.DocumentStatus(*document),
			FeeStatus:        crm.FeeStatus(*fee),
			AdmissionStatus:  crm.AdmissionStatus(*admission),
			EnrollmentStatus: crm.EnrollmentStatus(*enrollment),
		})
		if err != nil {
			return err
		}
		return printJSON(app)
	default:
		return fmt.Errorf("unknown applications subcommand: %s", args[0])
	}
}

func (a *app) cmdActivities(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("activities requires a subcommand: lead, log")
	}
	switch args[0] {
	case "lead":
		fs := flag.NewFlagSet("activities lead", flag.ExitOnError)
		id := fs.Int("id", 0, "Lead id")
		limit := fs.Int("limit", 20, "Max entries")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		list, err := a.activities.ForLead(ctx, *id, *limit)
		if err != nil {
			return err
		}
		return printJSON(list)
	case "log":
		fs := flag.NewFlagSet("activities log", flag.ExitOnError)
		id := fs.Int("lead", 0, "Lead id")
		kind := fs.String("type", string(crm.ActivityNote), "Activity type")
		description := fs.String("description", "", "What happened")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		activity, err := a.activities.Create(ctx, activities.CreateRequest{
			LeadID:      *id,
			Type:        crm.ActivityType(*kind),
			Description: *description,
		})
		if err != nil {
			return err
		}
		return printJSON(activity)
	default:
		return fmt.Errorf("unknown activities subcommand: %s", args[0])
	}
}

func (a *app) cmdDashboard(ctx context.Context) error {
	gate := access.Gate{AllowedRoles: []crm.Role{crm.RoleAdmin, crm.RoleTeamLead, crm.RoleDigitalManager}}
	if !gate.Allows(a.session.CurrentUser()) {
		return fmt.Errorf("your role cannot view reports")
	}
	// Dashboard panels are read-only, so transient failures get retried
	// within the configured bounds.
	dash, err := gateway.Retry(ctx, func(ctx context.Context) (reports.Dashboard, error) {
		return a.reports.WarmDashboard(ctx, 30)
	}, a.gw.RetryOpts(a.cfg.RetryAttempts, a.cfg.RetryBaseDelay))
	if err != nil {
		return err
	}
	return printJSON(dash)
}

func (a *app) cmdStats(ctx context.Context) error {
	gate := access.Gate{RequireAdmin: true}
	if !gate.Allows(a.session.CurrentUser()) {
		return fmt.Errorf("admin role required")
	}
	stats, err := a.admin.SystemStats(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}
