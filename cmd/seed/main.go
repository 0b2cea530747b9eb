package main

import (
	"context"
	"errors"
	"log"
	"time"

	"counseling/internal/config"
	"counseling/internal/database"
	"counseling/internal/domain"
	"counseling/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	email    string
	password string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	slots := repository.NewSlotRepository(db)

	// ================== USERS ==================
	log.Println("Creating users...")
	counselor := ensureUser(ctx, users, seedUser{email: "counselor@example.com", password: "counselor123"})
	ensureUser(ctx, users, seedUser{email: "student@example.com", password: "student123"})

	// ================== SLOTS ==================
	log.Println("Creating slots...")
	loc := cfg.InputLocation
	day := time.Now().In(loc).AddDate(0, 0, 1)
	base := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, loc)

	notes := []string{
		"Intake session. Bring your **student ID**.",
		"",
		"Follow-up session",
		"Career planning, see https://example.com/careers",
	}
	for i, note := range notes {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		s := &domain.Slot{
			StartTS:     start,
			EndTS:       start.Add(50 * time.Minute),
			IsActive:    i != 1,
			CounselorID: counselor.ID,
		}
		if note != "" {
			n := note
			s.Note = &n
		}
		if err := slots.Create(ctx, s); err != nil {
			log.Fatalf("create slot: %v", err)
		}
		log.Printf("Slot %s at %s active=%t", s.ID, start.Format("2006-01-02 15:04 MST"), s.IsActive)
	}

	log.Println("Seed completed.")
	log.Printf("Add the counselor to the administrator set: ADMIN_UIDS=%s", counselor.ID)
}

func ensureUser(ctx context.Context, users *repository.UserRepository, su seedUser) *domain.User {
	if u, err := users.GetByEmail(ctx, su.email); err == nil {
		log.Printf("User exists: %s", su.email)
		return u
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Fatalf("lookup %s: %v", su.email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Email: su.email, PasswordHash: string(hash)}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("create %s: %v", su.email, err)
	}
	log.Printf("User created: %s / %s", su.email, su.password)
	return u
}
