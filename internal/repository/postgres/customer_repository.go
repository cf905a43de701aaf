package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice-api/internal/domain"

	"github.com/google/uuid"
)

// CustomerRepository implements domain.CustomerRepository for PostgreSQL
type CustomerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer into the database
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}

	query := `
		INSERT INTO customers (id, name, email, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.CreatedBy,
	).Scan(&customer.CreatedAt)
	if IsUniqueViolation(err, "customers_email_key") {
		return domain.ErrCustomerExists
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `
		SELECT id, name, email, created_by, created_at
		FROM customers
		WHERE id = $1
	`
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.CreatedBy,
		&customer.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// List retrieves customers ordered by creation time, newest first
func (r *CustomerRepository) List(ctx context.Context, limit int) ([]*domain.Customer, error) {
	query := `
		SELECT id, name, email, created_by, created_at
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer := &domain.Customer{}
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.CreatedBy,
			&customer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}
