package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"investment-platform/internal/config"
	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	pg "investment-platform/internal/infra/db/postgres"
)

// Seeds the starter catalog and the first admin account. Idempotent: existing
// packages and an existing admin phone are left untouched.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	packageRepo := pg.NewPackageRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// ---- Packages ----
	pkgs, err := packageRepo.List(ctx, repository.NoTX, false)
	if err != nil {
		log.Fatalf("list packages: %v", err)
	}
	if len(pkgs) > 0 {
		fmt.Printf("%d packages already present. No changes.\n", len(pkgs))
	} else {
		seed := []struct {
			Name  string
			Price float64
			Days  int
			ROI   float64
		}{
			{"Bronze", 1_000, 30, 100},
			{"Silver", 5_000, 30, 120},
			{"Gold", 10_000, 45, 150},
			{"Platinum", 25_000, 60, 180},
		}
		for _, s := range seed {
			p, err := model.NewPackage("", s.Name, s.Price, s.Days, s.ROI)
			if err != nil {
				log.Fatalf("package %q: %v", s.Name, err)
			}
			if err := packageRepo.Save(ctx, repository.NoTX, p); err != nil {
				log.Fatalf("save package %q: %v", s.Name, err)
			}
			fmt.Printf("seeded: %s (price=%.0f %s, days=%d, roi=%.0f%%, daily=%.2f)\n",
				p.Name, p.Price, cfg.Settings.Currency, p.DurationDays, p.ROIPercent, p.DailyIncome())
		}
	}

	// ---- Admin account ----
	phone := os.Getenv("ADMIN_PHONE")
	password := os.Getenv("ADMIN_PASSWORD")
	if phone == "" || password == "" {
		fmt.Println("ADMIN_PHONE / ADMIN_PASSWORD not set; skipping admin account.")
		return
	}
	if _, err := userRepo.FindByPhone(ctx, repository.NoTX, phone); err == nil {
		fmt.Printf("admin %s already present. No changes.\n", phone)
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Fatalf("lookup admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	admin, err := model.NewUser("", phone, "Administrator", string(hash), nil)
	if err != nil {
		log.Fatalf("build admin: %v", err)
	}
	admin.IsAdmin = true
	if err := userRepo.Save(ctx, repository.NoTX, admin); err != nil {
		log.Fatalf("save admin: %v", err)
	}
	fmt.Printf("seeded admin: %s (id=%s)\n", phone, admin.ID)

	fmt.Println("✅ Seeding complete.")
}
