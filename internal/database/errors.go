// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"database/sql"
	"io"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// closeQuietly closes a resource in an error path where the Close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// closeRows closes a result set and logs a failure.
func closeRows(rows *sql.Rows, operation string) {
	if err := rows.Close(); err != nil {
		logging.Warn().Err(err).Str("operation", operation).Msg("Failed to close rows")
	}
}

// rollbackQuietly rolls back a transaction that may already be committed.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
