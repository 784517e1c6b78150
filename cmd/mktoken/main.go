// Command mktoken issues a bearer token for one business id, for local
// development and for operators onboarding a new business.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"stockkeeper/internal/auth"
)

func main() {
	businessID := flag.String("business", "", "business id to scope the token to (default: generate a new one)")
	ttl := flag.Duration("ttl", 720*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required (environment variable or .env)")
		os.Exit(1)
	}

	id := *businessID
	if id == "" {
		id = uuid.NewString()
	}

	token, err := auth.GenerateToken(secret, id, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("business id: %s\n", id)
	fmt.Printf("token: %s\n", token)
}
