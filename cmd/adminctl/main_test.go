package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"finwise/internal/apperr"
	"finwise/internal/models"
	"finwise/internal/services"
	"finwise/internal/store/memstore"
	"finwise/internal/token"
)

func newTestCLI(t *testing.T) (*cli, *memstore.Users, *bytes.Buffer) {
	t.Helper()
	users := memstore.New().Users()
	issuer := token.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	out := &bytes.Buffer{}
	return &cli{
		users: users,
		auth:  services.NewAuthService(users, issuer, nil, bcrypt.MinCost, zap.NewNop()),
		admin: services.NewUserService(users, nil, bcrypt.MinCost),
		out:   out,
	}, users, out
}

func TestCreateAdmin_PromptsForPassword(t *testing.T) {
	c, users, out := newTestCLI(t)
	t.Setenv("ADMINCTL_PASSWORD", "")
	orig := readPassword
	readPassword = func() ([]byte, error) { return []byte("s3cret-pass\n"), nil }
	t.Cleanup(func() { readPassword = orig })

	err := c.dispatch(context.Background(), []string{"create-admin",
		"-username", "root", "-email", "root@example.com", "-first", "Ro", "-last", "Ot"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "created admin root")

	u, err := users.FindByUsernameOrEmail(context.Background(), "root")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, u.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))

	activity, err := users.ListActivity(context.Background(), u.ID)
	require.NoError(t, err)
	require.Empty(t, activity)
}

func TestCreateAdmin_FailureLeavesNoAccount(t *testing.T) {
	c, users, _ := newTestCLI(t)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &models.User{Username: "taken", Email: "root@example.com"}))
	t.Setenv("ADMINCTL_PASSWORD", "s3cret-pass")

	err := c.dispatch(ctx, []string{"create-admin",
		"-username", "root", "-email", "root@example.com", "-first", "Ro", "-last", "Ot"})
	require.Error(t, err)

	_, err = users.FindByUsernameOrEmail(ctx, "root")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCreateAdmin_PasswordFromEnv(t *testing.T) {
	c, _, _ := newTestCLI(t)
	t.Setenv("ADMINCTL_PASSWORD", "short")
	orig := readPassword
	readPassword = func() ([]byte, error) { return nil, errors.New("no terminal") }
	t.Cleanup(func() { readPassword = orig })

	err := c.dispatch(context.Background(), []string{"create-admin",
		"-username", "root", "-email", "root@example.com", "-first", "Ro", "-last", "Ot"})
	require.Error(t, err)
}

func TestSetRole(t *testing.T) {
	c, users, out := newTestCLI(t)
	ctx := context.Background()
	u := &models.User{Username: "bob", Email: "bob@example.com", Role: models.RoleAdmin}
	require.NoError(t, users.Create(ctx, u))

	require.NoError(t, c.dispatch(ctx, []string{"set-role", "-user", "bob@example.com", "-role", "User"}))
	require.Contains(t, out.String(), "bob is now user")

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, got.Role)

	require.Error(t, c.dispatch(ctx, []string{"set-role", "-user", "bob", "-role", "root"}))
	require.Error(t, c.dispatch(ctx, []string{"set-role"}))
	require.Error(t, c.dispatch(ctx, []string{"drop-tables"}))
}
