package users

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wellmind/internal/auth"
	"wellmind/internal/config"
	"wellmind/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

// Postgres unique_violation
const pqUniqueViolation = "23505"

// Ensure PostgresRepository implements the Repository interface
var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository is the durable credential store. It satisfies the same
// contract as MemoryRepository so the Directory is unaware of the swap.
type PostgresRepository struct {
	conn *sql.DB
}

// NewPostgresRepository opens a connection, verifies it and applies
// migrations before returning the repository.
func NewPostgresRepository(dbConfig config.DatabaseConfig) (*PostgresRepository, error) {
	dsn := dbConfig.GetDSN()
	logger.Log.WithField("host", dbConfig.Host).Info("Connecting to PostgreSQL")

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	repo := &PostgresRepository{conn: conn}

	if err = repo.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.Info("Successfully connected to PostgreSQL")

	return repo, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// runMigrations applies schema migrations using golang-migrate
func (r *PostgresRepository) runMigrations() error {
	driver, err := postgres.WithInstance(r.conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("error applying migrations: %w", err)
	}

	logger.Log.Info("Database migrations applied successfully")
	return nil
}

// Save inserts a new credential record, mapping the unique-key violation on
// email to auth.ErrUserAlreadyExists.
func (r *PostgresRepository) Save(creds StoredCredentials) error {
	query := `
	INSERT INTO users (id, email, first_name, last_name, password_hash, salt, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(query,
		creds.User.ID,
		creds.User.Email,
		creds.User.FirstName,
		creds.User.LastName,
		creds.PasswordHash,
		creds.Salt,
		creds.User.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return auth.ErrUserAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// FindByEmail retrieves the credential record for an email
func (r *PostgresRepository) FindByEmail(email string) (*StoredCredentials, error) {
	query := `
	SELECT id, email, first_name, last_name, password_hash, salt, created_at, last_login_at
	FROM users WHERE email = $1
	`

	var (
		creds     StoredCredentials
		lastLogin sql.NullTime
	)
	err := r.conn.QueryRow(query, email).Scan(
		&creds.User.ID,
		&creds.User.Email,
		&creds.User.FirstName,
		&creds.User.LastName,
		&creds.PasswordHash,
		&creds.Salt,
		&creds.User.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	if lastLogin.Valid {
		creds.User.LastLoginAt = &lastLogin.Time
	}
	return &creds, nil
}

// UpdateLastLogin refreshes the last login timestamp for an email
func (r *PostgresRepository) UpdateLastLogin(email string, at time.Time) error {
	result, err := r.conn.Exec(`UPDATE users SET last_login_at = $2 WHERE email = $1`, email, at)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
