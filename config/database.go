package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS teams (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(255) NOT NULL,
			short_code VARCHAR(16) DEFAULT '',
			budget NUMERIC(14,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS members (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			nickname VARCHAR(255) UNIQUE NOT NULL,
			avatar TEXT DEFAULT '',
			role VARCHAR(50) NOT NULL DEFAULT 'PLAYER',
			status VARCHAR(50) NOT NULL DEFAULT 'ACTIVE',
			balance NUMERIC(14,2) NOT NULL DEFAULT 0,
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
			category VARCHAR(50) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT DEFAULT '',
			start_at TIMESTAMPTZ NOT NULL,
			location VARCHAR(255) DEFAULT '',
			cost NUMERIC(14,2) DEFAULT 0,
			max_attendees INT DEFAULT 0,
			is_conflict BOOLEAN NOT NULL DEFAULT FALSE,
			created_seq BIGSERIAL,
			created_by UUID REFERENCES members(id),
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_team_start ON events(team_id, start_at)`,

		`CREATE TABLE IF NOT EXISTS schedule_entries (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			event_id UUID REFERENCES events(id) ON DELETE CASCADE,
			time_of_day CHAR(5) NOT NULL,
			opponent VARCHAR(255) NOT NULL,
			result VARCHAR(50) DEFAULT '',
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS rsvps (
			event_id UUID REFERENCES events(id) ON DELETE CASCADE,
			member_id UUID REFERENCES members(id) ON DELETE CASCADE,
			status VARCHAR(50) NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (event_id, member_id)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
			kind VARCHAR(50) NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			title VARCHAR(255) NOT NULL,
			member_id UUID REFERENCES members(id),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SeedDemoData inserts the demo roster when the database is empty so a
// fresh install has something to show. Every demo account's password is
// "paintball".
func SeedDemoData(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding demo data...")

	const demoHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	var teamID string
	err := db.QueryRow(`
		INSERT INTO teams (name, short_code, budget)
		VALUES ('Headshot Gladiators', 'HSG', 45000)
		RETURNING id
	`).Scan(&teamID)
	if err != nil {
		return err
	}

	seedMembers := []struct {
		name, nickname, avatar, role string
		balance                      float64
	}{
		{"Alex Paint", "Sniper_Alex", "https://i.pravatar.cc/150?u=sniper", "CAPTAIN", 0},
		{"Dmitry Ivanov", "Demon", "https://i.pravatar.cc/150?u=demon", "ADMIN", 1500},
		{"Ivan Petrov", "Tank", "https://i.pravatar.cc/150?u=tank", "PLAYER", -2000},
	}

	for _, m := range seedMembers {
		_, err := db.Exec(`
			INSERT INTO members (team_id, name, nickname, avatar, role, status, balance, password_hash)
			VALUES ($1, $2, $3, $4, $5, 'ACTIVE', $6, $7)
		`, teamID, m.name, m.nickname, m.avatar, m.role, m.balance, demoHash)
		if err != nil {
			return err
		}
	}

	return nil
}
