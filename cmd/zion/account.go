package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/zioncity/zion-sync/internal/session"
	"github.com/zioncity/zion-sync/internal/zion"
)

func runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", os.Getenv("ZION_PASSWORD"), "Account password (default $ZION_PASSWORD)")
	fs.Parse(args)

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := session.New(newAPI(), db)
	if err := store.Login(ctx, *email, *password); err != nil {
		fatal("signing in", err)
	}
	fmt.Printf("Signed in as %s\n", store.User().FullName())
}

func runRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	var reg zion.Registration
	fs.StringVar(&reg.FirstName, "first-name", "", "First name (required)")
	fs.StringVar(&reg.LastName, "last-name", "", "Last name (required)")
	fs.StringVar(&reg.MiddleName, "middle-name", "", "Middle name")
	fs.StringVar(&reg.Email, "email", "", "Email (required)")
	fs.StringVar(&reg.Phone, "phone", "", "Phone")
	fs.StringVar(&reg.Password, "password", os.Getenv("ZION_PASSWORD"), "Password, at least 6 characters (default $ZION_PASSWORD)")
	fs.Parse(args)

	db := openDB()
	defer db.Close()

	store := session.New(newAPI(), db)
	if err := store.Register(context.Background(), reg); err != nil {
		fatal("registering", err)
	}
	fmt.Printf("Registered and signed in as %s\n", store.User().FullName())
}

func runLogout() {
	db := openDB()
	defer db.Close()

	store := session.New(newAPI(), db)
	if err := store.Logout(); err != nil {
		log.Fatalf("Error signing out: %v", err)
	}
	fmt.Println("Signed out")
}

func runWhoami() {
	db := openDB()
	defer db.Close()

	user := requireSession(context.Background(), db).User()

	fmt.Printf("Name:       %s\n", user.FullName())
	fmt.Printf("Email:      %s\n", user.Email)
	fmt.Printf("Onboarded:  %v\n", user.IsOnboarded)
	if len(user.Memberships) == 0 {
		return
	}
	fmt.Println("Organizations:")
	for _, m := range user.Memberships {
		fmt.Printf("  %-38s %-8s %s\n", m.OrganizationID, m.Role, m.OrganizationName)
	}
}

func runOnboarding(args []string) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			log.Fatalf("Error: expected key=value, got %q", arg)
		}
		data[key] = value
	}

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	if err := store.CompleteOnboarding(ctx, data); err != nil {
		fatal("completing onboarding", err)
	}
	fmt.Printf("Onboarding complete: %v\n", store.User().IsOnboarded)
}

func runAdmin(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: zion admin login|verify|logout")
		os.Exit(1)
	}

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	admin := session.NewAdmin(newAPI(), db)

	switch args[0] {
	case "login":
		fs := flag.NewFlagSet("admin login", flag.ExitOnError)
		email := fs.String("email", "", "Admin email")
		password := fs.String("password", os.Getenv("ZION_ADMIN_PASSWORD"), "Admin password (default $ZION_ADMIN_PASSWORD)")
		fs.Parse(args[1:])

		if err := admin.Login(ctx, *email, *password); err != nil {
			fatal("signing in as admin", err)
		}
		fmt.Printf("Signed in to the admin panel as %s\n", *email)
	case "verify":
		if err := admin.Initialize(ctx); err != nil {
			fatal("verifying admin session", err)
		}
		if admin.Admin() == nil {
			fmt.Println("No admin session")
			os.Exit(1)
		}
		fmt.Printf("Admin session valid: %s\n", admin.Admin().Email)
	case "logout":
		if err := admin.Logout(); err != nil {
			log.Fatalf("Error signing out: %v", err)
		}
		fmt.Println("Signed out of the admin panel")
	default:
		fmt.Printf("Unknown admin command: %s\n", args[0])
		os.Exit(1)
	}
}
