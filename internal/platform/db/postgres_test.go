package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert order: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23514"}))
	require.False(t, IsUniqueViolation(errors.New("23505")))
	require.False(t, IsUniqueViolation(nil))
}
