// seed loads development data: a few blocked contacts and, when JWT_PRIVATE_KEY is set, an
// access token for a dev tenant. Idempotent: contacts already blocked are skipped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Peixotim/sales-bot/internal/audit"
	auditrepo "github.com/Peixotim/sales-bot/internal/audit/repository"
	"github.com/Peixotim/sales-bot/internal/config"
	"github.com/Peixotim/sales-bot/internal/contacts/domain"
	contactsrepo "github.com/Peixotim/sales-bot/internal/contacts/repository"
	contactsservice "github.com/Peixotim/sales-bot/internal/contacts/service"
	"github.com/Peixotim/sales-bot/internal/db"
	"github.com/Peixotim/sales-bot/internal/logging"
	"github.com/Peixotim/sales-bot/internal/security"
)

const devTenantID = "dev-tenant-001"

var devContacts = []struct {
	number string
	name   string
}{
	{"5511900000001", "Fornecedor"},
	{"5511900000002", "Suporte interno"},
	{"5521900000003", ""},
}

func main() {
	tenantID := flag.String("tenant", devTenantID, "Tenant id the dev token is issued for")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or export DATABASE_URL")
	}
	logger := logging.New(os.Stderr, "seed", cfg.Env, cfg.LogFormat, cfg.LogLevel)

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), nil, nil, logger)
	blocklist := contactsservice.NewBlocklistService(contactsrepo.NewPostgresRepository(conn), auditLogger, cfg.DefaultCountryCode)
	for _, c := range devContacts {
		bc, err := blocklist.Block(ctx, c.number, c.name)
		switch {
		case errors.Is(err, domain.ErrAlreadyBlocked):
			log.Printf("contact %s already blocked, skipping", c.number)
		case err != nil:
			log.Fatalf("block %s: %v", c.number, err)
		default:
			log.Printf("blocked %s (%s)", bc.JID, bc.Name)
		}
	}

	if cfg.JWTPrivateKey == "" {
		log.Println("JWT_PRIVATE_KEY not set; no dev token issued.")
		return
	}
	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessTTL)
	token, expiresAt, err := tokens.IssueAccess(*tenantID, "Dev Tenant")
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	log.Println("Seed completed successfully.")
	fmt.Printf("Tenant: %s\nToken (expires %s):\n%s\n", *tenantID, expiresAt.Format("2006-01-02 15:04:05Z07:00"), token)
}
