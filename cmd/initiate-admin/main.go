// Command initiate-admin bootstraps the first admin account. It
// refuses to run when an admin already exists.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"contracting_system/internal/config"
	"contracting_system/internal/security"
	"contracting_system/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := config.NewPool(&config.DBConfig{
		DatabaseURL: cfg.Database.URL,
		Logger:      logger,
		MaxConns:    2,
		MinConns:    1,
	})
	if err != nil {
		fmt.Println("Failed to connect to database:", err)
		return
	}
	defer db.Close()

	st := store.New(db)
	ctx := context.Background()

	count, err := st.CountUsersByRole(ctx, store.RoleAdmin)
	if err != nil {
		fmt.Println("Failed to check for existing admin user:", err)
		return
	}
	if count > 0 {
		fmt.Println("Admin user already exists. Exiting.")
		return
	}

	reader := bufio.NewScanner(os.Stdin)

	fmt.Println("Initiating admin user creation")

	fmt.Println("Enter username:")
	reader.Scan()
	username := strings.TrimSpace(reader.Text())
	if username == "" {
		fmt.Println("Username cannot be empty")
		return
	}

	fmt.Println("Enter password:")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println("Failed to read password:", err)
		return
	}
	password := string(passwordBytes)
	fmt.Println()

	if err := security.CheckPasswordStrength(password); err != nil {
		fmt.Println("Password rejected:", err)
		return
	}

	fmt.Println("Enter email:")
	reader.Scan()
	email := strings.TrimSpace(reader.Text())

	fmt.Println("Enter full name:")
	reader.Scan()
	fullName := strings.TrimSpace(reader.Text())

	hash, err := security.HashPassword(password)
	if err != nil {
		fmt.Println("Failed to hash password:", err)
		return
	}

	user := store.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         store.RoleAdmin,
		Active:       true,
	}
	if fullName != "" {
		user.FullName = &fullName
	}

	created, err := st.CreateUser(ctx, user)
	if err != nil {
		fmt.Println("Failed to create admin user:", err)
		return
	}

	fmt.Printf("Admin user %q created successfully (id %d)\n", created.Username, created.ID)
}
