package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"storyweek/internal/config"
	"storyweek/internal/database"
	"storyweek/internal/repository"
	"storyweek/internal/service"
)

func main() {
	childID := flag.String("child", "", "Child ID to export (required)")
	output := flag.String("output", "", "Output file path (default: export_<childId>_YYYYMMDD.json)")
	flag.Parse()

	if *childID == "" {
		fmt.Println("Error: -child flag is required")
		flag.PrintDefaults()
		os.Exit(1)
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

	childRepo := repository.NewChildRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	workbookRepo := repository.NewWorkbookRepository(db)
	exportService := service.NewExportService(childRepo, cycleRepo, workbookRepo)

	path := *output
	if path == "" {
		path = fmt.Sprintf("export_%s_%s.json", *childID, time.Now().Format("20060102"))
	}

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	if err := exportService.ExportChild(*childID, file); err != nil {
		os.Remove(path)
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("Exported child %s to %s\n", *childID, path)
}
