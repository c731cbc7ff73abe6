// Command token mints a bearer token signed with the configured JWT secret.
// It exists to bootstrap the first admin, who can then issue tokens over the API.
package main

import (
	"flag"
	"fmt"
	"os"

	"trip-finance-ledger/config"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/service"

	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	userID := flag.String("user", "", "user id (uuid)")
	role := flag.String("role", string(domain.RoleAdmin), "admin, lender or transporter")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("failed to load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		fail("jwt.secret is required (set TFL_JWT_SECRET)")
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fail("invalid -user: %v", err)
	}
	r := domain.Role(*role)
	switch r {
	case domain.RoleAdmin, domain.RoleLender, domain.RoleTransporter:
	default:
		fail("invalid -role %q", *role)
	}

	token, expiresAt, err := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer).Generate(id, r)
	if err != nil {
		fail("generate token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Println(token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
