// Command seed_admin creates or updates a back-office account. The portal has
// no self-registration, so the first administrator has to come from here.
//
//	go run ./scripts/seed_admin -email admin@truong.edu.vn -password secret -name "Quản trị viên"
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/config"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/database"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", "", "account password (required)")
	name := flag.String("name", "Quản trị viên", "display name")
	role := flag.String("role", "ADMIN", "role: ADMIN or SUPERADMIN")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	if *role != "ADMIN" && *role != "SUPERADMIN" {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	const query = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, true, $6, $6)
        ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash,
            full_name = EXCLUDED.full_name, role = EXCLUDED.role, active = true,
            updated_at = EXCLUDED.updated_at`
	if _, err := db.ExecContext(ctx, query, uuid.NewString(), *email, string(hash), *name, *role, now); err != nil {
		log.Fatalf("upsert account: %v", err)
	}

	log.Printf("account %s ready (role %s)", *email, *role)
}
