package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operator is a back-office user allowed to run extractions.
type Operator struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// GetOperatorByUsername looks up an active operator for login.
func GetOperatorByUsername(ctx context.Context, username string) (*Operator, error) {
	query := `
		SELECT id, username, COALESCE(name, ''), COALESCE(role, 'operator'),
		       password_hash, last_login_at
		FROM operators
		WHERE username = $1 AND active = true
	`

	var op Operator
	err := Pool.QueryRow(ctx, query, username).Scan(
		&op.ID, &op.Username, &op.Name, &op.Role, &op.PasswordHash, &op.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// TouchOperatorLogin records a successful login.
func TouchOperatorLogin(ctx context.Context, operatorID uuid.UUID) error {
	_, err := Pool.Exec(ctx, "UPDATE operators SET last_login_at = NOW() WHERE id = $1", operatorID)
	return err
}
