package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"storyweek/internal/auth"
	"storyweek/internal/config"
	"storyweek/internal/database"
	"storyweek/internal/repository"
)

// seedFile is the on-disk profile format. The API never mutates profile
// data; families are onboarded by loading one of these files.
type seedFile struct {
	FamilyID    string   `json:"familyId"`
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	DevicePIN   string   `json:"devicePin,omitempty"`
	Triggers    []seed   `json:"triggers,omitempty"`
	Effective   []string `json:"effectiveStrategies,omitempty"`
	Ineffective []string `json:"ineffectiveStrategies,omitempty"`
	Boundaries  []string `json:"boundaries,omitempty"`
}

type seed struct {
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
}

func main() {
	path := flag.String("file", "", "Profile seed file (required)")
	flag.Parse()

	if *path == "" {
		fmt.Println("Error: -file flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}
	var profile seedFile
	if err := json.Unmarshal(data, &profile); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}
	if profile.FamilyID == "" || profile.Name == "" || profile.Age < 1 {
		log.Fatal("Seed file must set familyId, name and a positive age")
	}

	godotenv.Load()
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	children := repository.NewChildRepository(db)
	child, err := children.CreateChild(profile.FamilyID, profile.Name, profile.Age)
	if err != nil {
		log.Fatalf("Failed to create child: %v", err)
	}

	if profile.DevicePIN != "" {
		hash, err := auth.HashPIN(profile.DevicePIN)
		if err != nil {
			log.Fatalf("Invalid device PIN: %v", err)
		}
		if err := children.SetDevicePIN(child.ID, hash); err != nil {
			log.Fatalf("Failed to set device PIN: %v", err)
		}
	}

	for _, t := range profile.Triggers {
		severity := t.Severity
		if severity == "" {
			severity = "medium"
		}
		if _, err := children.AddTrigger(child.ID, t.Description, severity); err != nil {
			log.Fatalf("Failed to add trigger: %v", err)
		}
	}
	for _, s := range profile.Effective {
		if _, err := children.AddStrategy(child.ID, s, true); err != nil {
			log.Fatalf("Failed to add strategy: %v", err)
		}
	}
	for _, s := range profile.Ineffective {
		if _, err := children.AddStrategy(child.ID, s, false); err != nil {
			log.Fatalf("Failed to add strategy: %v", err)
		}
	}
	for _, b := range profile.Boundaries {
		if _, err := children.AddBoundary(child.ID, b); err != nil {
			log.Fatalf("Failed to add boundary: %v", err)
		}
	}

	fmt.Printf("Seeded child %s (%s) for family %s\n", child.Name, child.ID, child.FamilyID)
}
