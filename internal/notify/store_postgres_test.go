// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/notify"
	"github.com/taibuivan/scholaris/internal/platform/apperr"
)

func newInboxWithMock(t *testing.T) (*notify.PostgresInbox, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return notify.NewPostgresInbox(mock), mock
}

/*
TestPostgresInbox_ScopedToRecipient checks that read and delete only touch the
caller's own entries and that another recipient's id reads as missing.
*/
func TestPostgresInbox_ScopedToRecipient(t *testing.T) {
	markRead := `UPDATE\s+registry\.notification\s+SET\s+is_read\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+recipient_id\s*=\s*\$2`
	remove := `DELETE\s+FROM\s+registry\.notification\s+WHERE\s+id\s*=\s*\$1\s+AND\s+recipient_id\s*=\s*\$2`

	tests := []struct {
		name    string
		query   string
		tag     string
		rows    int64
		call    func(*notify.PostgresInbox) error
		wantErr bool
	}{
		{"mark read", markRead, "UPDATE", 1, func(inbox *notify.PostgresInbox) error {
			return inbox.MarkRead(context.Background(), "u1", "n1")
		}, false},
		{"mark read foreign", markRead, "UPDATE", 0, func(inbox *notify.PostgresInbox) error {
			return inbox.MarkRead(context.Background(), "u1", "n1")
		}, true},
		{"delete", remove, "DELETE", 1, func(inbox *notify.PostgresInbox) error {
			return inbox.Delete(context.Background(), "u1", "n1")
		}, false},
		{"delete foreign", remove, "DELETE", 0, func(inbox *notify.PostgresInbox) error {
			return inbox.Delete(context.Background(), "u1", "n1")
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox, mock := newInboxWithMock(t)
			mock.ExpectExec(tt.query).
				WithArgs("n1", "u1").
				WillReturnResult(pgxmock.NewResult(tt.tag, tt.rows))

			err := tt.call(inbox)
			if tt.wantErr {
				assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
