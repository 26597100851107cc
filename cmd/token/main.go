package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"storyweek/internal/auth"
	"storyweek/internal/config"
)

// Parent sessions come from whatever identity layer fronts the API; this
// tool mints one directly for development and integration testing.
func main() {
	userID := flag.String("user", "", "User ID the token is issued to (required)")
	familyID := flag.String("family", "", "Family ID the token grants access to (required)")
	flag.Parse()

	if *userID == "" || *familyID == "" {
		fmt.Println("Error: -user and -family flags are required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	godotenv.Load()
	cfg := config.Load()
	if cfg.TokenSecret == "" {
		log.Fatal("TOKEN_SECRET must be set")
	}

	tokens, err := auth.NewTokens(cfg.TokenSecret, cfg.TokenDuration)
	if err != nil {
		log.Fatalf("Failed to initialize token signer: %v", err)
	}

	token, err := tokens.IssueParent(*userID, *familyID)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
