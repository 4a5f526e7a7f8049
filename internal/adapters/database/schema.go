package database

import (
	"context"
	_ "embed"

	"github.com/lawyerhours/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the directory tables when they are missing
func EnsureSchema(ctx context.Context, client *postgres.Client) error {
	if _, err := client.DB().ExecContext(ctx, schemaSQL); err != nil {
		return apperrors.NewInternalError("failed to apply schema", err)
	}
	return nil
}
