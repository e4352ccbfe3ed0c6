package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/predialis/predialis/internal/adapter/postgres"
	"github.com/predialis/predialis/internal/config"
	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/service"
)

// runAdmin dispatches admin subcommands (create-user, reset-password,
// list-users, grant).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "reset-password":
		return runAdminResetPassword(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "grant":
		return runAdminGrant(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: predialis admin <command> [options]

Commands:
  create-user      Create a new identity
  reset-password   Reset an identity's password
  list-users       List all identities
  grant            Grant a tenant membership to a user
  help             Show this help message

Examples:
  predialis admin create-user --email admin@localhost --name "Admin" --admin
  predialis admin reset-password --email admin@localhost
  predialis admin grant --user <user-id> --tenant <tenant-id> --role manager
  predialis admin list-users
`)
}

type adminDeps struct {
	auth    *service.AuthService
	tenants *service.TenantService
	cleanup func()
}

func loadAdminDeps() (*adminDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	return &adminDeps{
		auth:    service.NewAuthService(store, &cfg.Auth),
		tenants: service.NewTenantService(store, nil, nil),
		cleanup: pool.Close,
	}, nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "email address (required)")
	name := fs.String("name", "", "display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	admin := fs.Bool("admin", false, "grant the global admin role")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	role := identity.GlobalRoleUser
	if *admin {
		role = identity.GlobalRoleAdmin
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	i, err := deps.auth.Register(context.Background(), &identity.CreateRequest{
		Email:      *email,
		Name:       *name,
		Password:   pass,
		GlobalRole: role,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s, role=%s)\n", i.Email, i.ID, i.GlobalRole)
	return nil
}

func runAdminResetPassword(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "email address (required)")
	password := fs.String("password", "", "new password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	newPass := *password
	if newPass == "" {
		var err error
		newPass, err = promptPassword("New password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if newPass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	if err := deps.auth.AdminResetPassword(context.Background(), *email, newPass); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Password reset successfully for %s\n", *email)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	users, err := deps.auth.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tGLOBAL_ROLE\tENABLED")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			users[i].ID, users[i].Email, users[i].Name, users[i].GlobalRole, users[i].Enabled)
	}
	return w.Flush()
}

func runAdminGrant(args []string) error {
	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	userID := fs.String("user", "", "user id (required)")
	tenantID := fs.String("tenant", "", "tenant id (required)")
	role := fs.String("role", "resident", "role: owner, resident, or manager")
	unit := fs.String("unit", "", "unit label, e.g. \"Bloco A / 101\"")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == "" {
		return fmt.Errorf("--user is required")
	}
	if *tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	m, err := deps.tenants.Grant(context.Background(), *tenantID, membership.GrantRequest{
		UserID: *userID,
		Role:   membership.Role(*role),
		Unit:   *unit,
	})
	if err != nil {
		return fmt.Errorf("grant membership: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Membership granted: user=%s tenant=%s role=%s\n", m.UserID, m.TenantID, m.Role)
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
