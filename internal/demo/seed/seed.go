package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// Insert writes customers in a single transaction. With reset the existing
// rows are removed first.
func Insert(ctx context.Context, db *sql.DB, customers []Customer, reset bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if reset {
		if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
			return fmt.Errorf("reset customers: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO customers (id, name, email, city, registration_date) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, customer := range customers {
		if _, err := stmt.ExecContext(ctx, customer.ID, customer.Name, customer.Email, customer.City, customer.RegistrationDate); err != nil {
			return fmt.Errorf("insert customer %d: %w", customer.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// ReadAll loads the customers table ordered by id.
func ReadAll(ctx context.Context, db *sql.DB) ([]Customer, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, email, city, registration_date FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var customers []Customer
	for rows.Next() {
		var customer Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.City, &customer.RegistrationDate); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return customers, nil
}
