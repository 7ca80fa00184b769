// Seeds a development database with an admin account and a small catalog.
// Existing rows with the same ids are left untouched.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/crypto/bcrypt"

	"gba-rental/internal/config"
	"gba-rental/internal/models"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := seedAdmin(ctx, db); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	if err := seedVehicles(ctx, db); err != nil {
		log.Fatalf("failed to seed vehicles: %v", err)
	}
	log.Println("Done.")
}

func seedAdmin(ctx context.Context, db *bun.DB) error {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme-admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		UserID:    uuid.NewString(),
		Name:      "Admin",
		Email:     "admin@gba-rental.local",
		Password:  string(hash),
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
	}
	res, err := db.NewInsert().Model(&admin).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("Created admin user %s", admin.Email)
	} else {
		log.Printf("Admin user %s already present", admin.Email)
	}
	return nil
}

func seedVehicles(ctx context.Context, db *bun.DB) error {
	samples := []models.Vehicle{
		{Brand: "Toyota", Model: "Corolla", Year: 2021, Fuel: "gasoline", Transmission: "automatic", Price: 28500, Miles: 24000, Stock: 2},
		{Brand: "BMW", Model: "X3", Year: 2022, Fuel: "diesel", Transmission: "automatic", Price: 52900, Miles: 12000, Stock: 1},
		{Brand: "Ford", Model: "Mustang", Year: 2020, Fuel: "gasoline", Transmission: "manual", Price: 46800, Miles: 31000, Stock: 1},
	}
	for i := range samples {
		samples[i].VehicleID = uuid.NewString()
		samples[i].Description = fmt.Sprintf("%s %s %d, dealer maintained", samples[i].Brand, samples[i].Model, samples[i].Year)
		samples[i].CreatedAt = time.Now()
	}

	count, err := db.NewSelect().Model((*models.Vehicle)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Catalog already has %d vehicles, skipping seed", count)
		return nil
	}

	if _, err := db.NewInsert().Model(&samples).Exec(ctx); err != nil {
		return err
	}
	log.Printf("Seeded %d vehicles", len(samples))
	return nil
}
