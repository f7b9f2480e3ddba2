// Command seed runs the database seeder for NUESA Scholars.
package main

import (
	"flag"
	"log"

	"nuesa/internal/config"
	"nuesa/internal/database"
	"nuesa/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numOpps := flag.Int("opportunities", 40, "Number of opportunities to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plaintext placeholder passwords (fast bulk loads)")
	adminEmail := flag.String("admin", "admin@nuesa.dev", "Admin account email (empty to skip)")
	flag.Parse()

	_ = godotenv.Load()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d opportunities, clean=%v\n", *numUsers, *numOpps, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.SeedOptions{SkipBcrypt: *skipBcrypt})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *adminEmail != "" {
		if _, err := s.SeedAdmin(*adminEmail, "Admin12345"); err != nil {
			log.Fatalf("Admin seeding failed: %v", err)
		}
	}

	users, err := s.SeedDemo(*numUsers, *numOpps)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeding complete: %d users created. All seeded accounts use password \"Password123\".", len(users))
}
