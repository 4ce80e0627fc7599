package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/Taichi-iskw/yt-comments/internal/errors"
)

func TestHandlePostgreSQLError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, wantCode: apperrors.CodeConflict, wantMessage: "row already exists"},
		{name: "not null violation", err: &pgconn.PgError{Code: "23502"}, wantCode: apperrors.CodeInvalidArg, wantMessage: "required field"},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, wantCode: apperrors.CodeInvalidArg, wantMessage: "must not be empty"},
		{name: "undefined table", err: &pgconn.PgError{Code: "42P01"}, wantCode: apperrors.CodeInternal, wantMessage: "run migrations"},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, wantCode: apperrors.CodeInternal, wantMessage: "connection error"},
		{name: "unknown code", err: &pgconn.PgError{Code: "XX000"}, wantCode: apperrors.CodeInternal, wantMessage: "XX000"},
		{name: "not a postgres error", err: assert.AnError, wantCode: apperrors.CodeInternal, wantMessage: "insert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := handlePostgreSQLError(tt.err, "insert")
			if assert.NotNil(t, appErr) {
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Contains(t, appErr.Message, tt.wantMessage)
				assert.ErrorIs(t, appErr, tt.err)
			}
		})
	}
}

func TestHandlePostgreSQLError_Nil(t *testing.T) {
	assert.Nil(t, handlePostgreSQLError(nil, "insert"))
}
