// Command token mints a bearer token for an arbitrary actor id, signed with the
// configured JWT secret. It is a development tool for poking at the API without
// an account; clients get their tokens from POST /api/v1/auth/login.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"denomination-wallet/config"
	"denomination-wallet/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("WLT_CONFIG"), "path to config file")
	actor := flag.String("actor", "", "actor id placed in the subject claim")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt.secret is required")
		os.Exit(1)
	}

	if *actor == "" {
		fmt.Fprintln(os.Stderr, "-actor is required")
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, "development token: not tied to a registered user")

	tokens := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	token, expiresAt, err := tokens.Generate(*actor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
