// Command adminctl bootstraps administrators against the configured database.
//
//	adminctl create-admin -username alice -email alice@example.com -first Alice -last Doe -gender female
//	adminctl set-role -user alice -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"finwise/internal/config"
	"finwise/internal/db"
	"finwise/internal/models"
	"finwise/internal/services"
	"finwise/internal/store"
	"finwise/internal/token"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: adminctl <create-admin|set-role> [flags]")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.RunMigrations(conn); err != nil {
		return err
	}

	users := store.NewUserRepository(conn)
	issuer := token.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	c := &cli{
		users: users,
		auth:  services.NewAuthService(users, issuer, nil, cfg.BcryptCost, zap.NewNop()),
		admin: services.NewUserService(users, nil, cfg.BcryptCost),
		out:   out,
	}
	return c.dispatch(ctx, args)
}

// lookup is the subset of the user store the CLI resolves names with.
type lookup interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
}

type cli struct {
	users lookup
	auth  *services.AuthService
	admin *services.UserService
	out   io.Writer
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "create-admin":
		return c.createAdmin(ctx, args[1:])
	case "set-role":
		return c.setRole(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *cli) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	in := services.SignupInput{}
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	fs.StringVar(&in.Gender, "gender", "unspecified", "gender")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password := os.Getenv("ADMINCTL_PASSWORD")
	if password == "" {
		fmt.Fprint(c.out, "Password: ")
		raw, err := readPassword()
		fmt.Fprintln(c.out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(string(raw))
	}
	in.Password = password

	u, err := c.auth.CreateAccount(ctx, in, models.RoleAdmin)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created admin %s (id %d)\n", u.Username, u.ID)
	return nil
}

func (c *cli) setRole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	user := fs.String("user", "", "username or email")
	role := fs.String("role", models.RoleAdmin, "role to assign (user|admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("-user is required")
	}
	u, err := c.users.FindByUsernameOrEmail(ctx, *user)
	if err != nil {
		return err
	}
	if err := c.admin.SetRole(ctx, u.ID, *role); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s is now %s\n", u.Username, strings.ToLower(*role))
	return nil
}
