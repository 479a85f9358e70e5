package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/go-while/go-tyggbot/internal/config"
	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/logging"
	"github.com/go-while/go-tyggbot/internal/models"
)

var appVersion = "-unset-"

const minPasswordLength = 6

func main() {
	config.AppVersion = appVersion
	log.Printf("go-tyggbot User Manager (version: %s)", config.AppVersion)
	var (
		createUser = flag.Bool("create", false, "Create a new panel user")
		listUsers  = flag.Bool("list", false, "List all users")
		deleteUser = flag.Bool("delete", false, "Delete a user")
		updateUser = flag.Bool("update", false, "Update a user's password")
		setLevel   = flag.Bool("setlevel", false, "Change a user's level")
		username   = flag.String("username", "", "Username for user operations")
		level      = flag.Int("level", config.LevelAdminPanel, "User level for -create and -setlevel (500 opens the admin panel)")
		dataDir    = flag.String("data", "", "Data directory (default: ./data or TYGG_DATA_DIR)")
	)
	flag.Parse()

	if !*createUser && !*listUsers && !*deleteUser && !*updateUser && !*setLevel {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -create -username pajlada -level 2000\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -update -username pajlada\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -setlevel -username pajlada -level 500\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -delete -username pajlada\n", os.Args[0])
		os.Exit(1)
	}

	cfg := config.NewDefaultConfig()
	cfg.ApplyEnv()
	if *dataDir != "" {
		cfg.Database.DataDir = *dataDir
	}

	dbcfg := database.DefaultDBConfig()
	dbcfg.DataDir = cfg.Database.DataDir
	db, err := database.OpenDatabase(dbcfg, logging.Discard())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if (*createUser || *setLevel) && (*level < 0 || *level > config.LevelMaximum) {
		log.Fatalf("Level must be between 0 and %d", config.LevelMaximum)
	}

	switch {
	case *createUser:
		requireUsername(*username, "creation")
		err = createNewUser(db, *username, *level)
	case *listUsers:
		err = listAllUsers(db)
	case *deleteUser:
		requireUsername(*username, "deletion")
		err = deleteExistingUser(db, *username)
	case *updateUser:
		requireUsername(*username, "update")
		err = updateUserPassword(db, *username)
	case *setLevel:
		requireUsername(*username, "level change")
		err = setUserLevel(db, *username, *level)
	}
	if err != nil {
		db.Close()
		log.Fatalf("Error: %v", err)
	}
}

func requireUsername(username, op string) {
	if strings.TrimSpace(username) == "" {
		log.Fatalf("Username is required for user %s", op)
	}
}

func createNewUser(db *database.Database, username string, level int) error {
	_, err := db.GetUserByUsername(username)
	if err == nil {
		return fmt.Errorf("user '%s' already exists", username)
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	hash, err := readPasswordHash("Enter password: ")
	if err != nil {
		return err
	}

	user := &models.User{
		Username:     username,
		Level:        level,
		PasswordHash: hash,
	}
	if err := db.InsertUser(user); err != nil {
		return fmt.Errorf("failed to insert user: %v", err)
	}

	fmt.Printf("✅ User '%s' (ID: %d, level %d) created successfully\n", username, user.ID, level)
	if level < config.LevelAdminPanel {
		fmt.Printf("Note: level %d cannot open the admin panel (needs %d)\n", level, config.LevelAdminPanel)
	}
	return nil
}

func listAllUsers(db *database.Database) error {
	users, err := db.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to get users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	fmt.Printf("Found %d users:\n\n", len(users))
	fmt.Printf("%-6s %-6s %-6s %-25s %s\n", "ID", "Level", "Panel", "Username", "Created")
	fmt.Printf("%-6s %-6s %-6s %-25s %s\n", "------", "-----", "-----", "--------", "-------")

	for _, user := range users {
		panel := "no"
		if user.Level >= config.LevelAdminPanel && user.PasswordHash != "" {
			panel = "yes"
		}
		fmt.Printf("%-6d %-6d %-6s %-25s %s\n",
			user.ID,
			user.Level,
			panel,
			truncate(user.Username, 25),
			user.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return nil
}

func deleteExistingUser(db *database.Database, username string) error {
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user '%s' not found", username)
	}

	fmt.Printf("Are you sure you want to delete user '%s' (ID: %d)? [y/N]: ", username, user.ID)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Println("User deletion cancelled")
		return nil
	}

	if err := db.DeleteUser(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	fmt.Printf("✅ User '%s' (ID: %d) deleted\n", user.Username, user.ID)
	return nil
}

func updateUserPassword(db *database.Database, username string) error {
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user '%s' not found", username)
	}

	hash, err := readPasswordHash(fmt.Sprintf("Enter new password for '%s': ", username))
	if err != nil {
		return err
	}

	// also logs the user out of the panel
	if err := db.SetUserPassword(user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}
	fmt.Printf("✅ Password updated successfully for user '%s'\n", username)
	return nil
}

func setUserLevel(db *database.Database, username string, level int) error {
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user '%s' not found", username)
	}
	if err := db.SetUserLevel(user.ID, level); err != nil {
		return fmt.Errorf("failed to set level: %v", err)
	}
	fmt.Printf("✅ Level of '%s' changed from %d to %d\n", username, user.Level, level)
	return nil
}

// readPasswordHash prompts twice without echo and returns the bcrypt hash
func readPasswordHash(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmPassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %v", err)
	}
	fmt.Println()

	if string(password) != string(confirmPassword) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}
	return string(hashedPassword), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
