package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var userCols = []string{
	"id", "full_name", "email", "service_id", "cnic_hash", "cnic_last4", "password_hash", "status",
	"approved_by", "approved_at", "avatar_url", "cover_url", "phone", "station", "city",
	"is_super_admin", "last_login_at", "created_at", "updated_at",
	"role_id", "role_name", "permissions", "role_created_at",
}

func userRow(rows *sqlmock.Rows, id string, status domain.UserStatus) *sqlmock.Rows {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "Asim", "asim@wardens.local", "HQ-1", "hash", "1111", "", string(status),
		"", nil, "", "", "", "Central", "Lahore",
		false, nil, now, now,
		"r-1", "Warden", "{posts.create}", now)
}

func TestUserGetByIDHydratesRole(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db, nil)

	mock.ExpectQuery(q("JOIN roles r ON r.id = u.role_id")).
		WithArgs("u-1").
		WillReturnRows(userRow(sqlmock.NewRows(userCols), "u-1", domain.UserActive))

	u, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWarden, u.RoleName())
	assert.Equal(t, []string{"posts.create"}, u.Role.Permissions)
	assert.Equal(t, domain.UserActive, u.Status)
	assert.Nil(t, u.ApprovedAt)
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db, nil)

	mock.ExpectQuery(q("WHERE u.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	mock.ExpectQuery(q("WHERE u.id = $1")).WithArgs("nope").WillReturnError(&pq.Error{Code: "22P02"})
	_, err = repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db, nil)

	mock.ExpectQuery(q("INSERT INTO users")).WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{Email: "a@x", Role: &domain.Role{ID: "r-1"}, Status: domain.UserPending})
	assert.ErrorIs(t, err, domain.ErrUserExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserCreateNullsEmptyEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db, nil)
	now := time.Now()

	mock.ExpectQuery(q("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Asim", nil, "HQ-1", "", "", "", "r-1", "pending", "", "", "", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &domain.User{FullName: "Asim", ServiceID: "HQ-1", Role: &domain.Role{ID: "r-1"}, Status: domain.UserPending}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
}

func TestUserUpdateStatusRejectedTransition(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db, nil)

	mock.ExpectExec(q("WHERE id = $1 AND status = ANY($5)")).
		WithArgs("u-1", "active", "admin-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("WHERE u.id = $1")).WithArgs("u-1").
		WillReturnRows(userRow(sqlmock.NewRows(userCols), "u-1", domain.UserBlocked))

	_, err := repo.UpdateStatus(context.Background(), domain.StatusChange{
		UserID: "u-1", From: []domain.UserStatus{domain.UserPending}, To: domain.UserActive,
		ApprovedBy: "admin-1", At: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

var inviteCols = []string{
	"id", "token", "email", "service_id", "created_by", "used_at", "used_by", "expires_at", "created_at",
	"role_id", "role_name", "permissions", "role_created_at",
}

func TestInviteRedeemCommits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db, nil)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE token = $1 AND used_at IS NULL AND expires_at > $2")).
		WithArgs("tok", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "service_id", "role_id"}).AddRow("inv-1", "a@x", "S-1", "r-1"))
	mock.ExpectQuery(q("FROM roles WHERE id = $1")).WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "permissions", "created_at"}).AddRow("r-1", "Warden", "{posts.create}", now))
	mock.ExpectQuery(q("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(q("UPDATE invites SET used_by = $2 WHERE id = $1")).
		WithArgs("inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(q("FROM invites i")).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(inviteCols).AddRow("inv-1", "tok", "a@x", "S-1", "admin-1", now, "u-new", now.Add(time.Hour), now, "r-1", "Warden", "{}", now))

	u := &domain.User{ID: "u-new", FullName: "A", Status: domain.UserPending}
	inv, err := repo.Redeem(context.Background(), "tok", u, now)
	require.NoError(t, err)
	assert.True(t, inv.IsUsed())
	assert.Equal(t, "u-new", inv.UsedBy)
	assert.Equal(t, "a@x", u.Email)
	assert.Equal(t, "S-1", u.ServiceID)
	assert.Equal(t, domain.RoleWarden, u.RoleName())
}

func TestInviteRedeemAlreadyUsed(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db, nil)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE invites")).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q("SELECT used_at, expires_at FROM invites WHERE token = $1")).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"used_at", "expires_at"}).AddRow(now.Add(-time.Minute), now.Add(time.Hour)))
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), "tok", &domain.User{}, now)
	assert.ErrorIs(t, err, domain.ErrInviteUsed)
}

func TestInviteRedeemExpiredAndMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db, nil)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE invites")).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q("SELECT used_at, expires_at")).
		WillReturnRows(sqlmock.NewRows([]string{"used_at", "expires_at"}).AddRow(nil, now.Add(-time.Hour)))
	mock.ExpectRollback()
	_, err := repo.Redeem(context.Background(), "tok", &domain.User{}, now)
	assert.ErrorIs(t, err, domain.ErrInviteExpired)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE invites")).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q("SELECT used_at, expires_at")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	_, err = repo.Redeem(context.Background(), "nope", &domain.User{}, now)
	assert.ErrorIs(t, err, domain.ErrInviteNotFound)
}

func TestInviteRedeemDuplicateUserRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresInviteRepository(db, nil)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE invites")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "service_id", "role_id"}).AddRow("inv-1", "a@x", "S-1", "r-1"))
	mock.ExpectQuery(q("FROM roles WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "permissions", "created_at"}).AddRow("r-1", "Warden", "{}", now))
	mock.ExpectQuery(q("INSERT INTO users")).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), "tok", &domain.User{}, now)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestPollAddVote(t *testing.T) {
	ctx := context.Background()
	insert := q("INSERT INTO welfare_poll_votes")
	status := q("SELECT p.status, EXISTS (")

	t.Run("recorded", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(insert).WithArgs("p-1", 0, "u-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, NewPostgresPollRepository(db, nil).AddVote(ctx, "p-1", 0, "u-1", time.Now()))
	})
	t.Run("duplicate voter", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(insert).WillReturnError(&pq.Error{Code: "23505", Constraint: "welfare_poll_votes_one_per_voter"})
		assert.ErrorIs(t, NewPostgresPollRepository(db, nil).AddVote(ctx, "p-1", 0, "u-1", time.Now()), domain.ErrAlreadyVoted)
	})
	t.Run("closed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(status).WithArgs("p-1", 0).WillReturnRows(sqlmock.NewRows([]string{"status", "exists"}).AddRow("closed", true))
		assert.ErrorIs(t, NewPostgresPollRepository(db, nil).AddVote(ctx, "p-1", 0, "u-1", time.Now()), domain.ErrPollClosed)
	})
	t.Run("bad option", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(status).WillReturnRows(sqlmock.NewRows([]string{"status", "exists"}).AddRow("open", false))
		assert.ErrorIs(t, NewPostgresPollRepository(db, nil).AddVote(ctx, "p-1", 9, "u-1", time.Now()), domain.ErrOptionNotFound)
	})
	t.Run("bad option on a closed poll", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(status).WillReturnRows(sqlmock.NewRows([]string{"status", "exists"}).AddRow("closed", false))
		assert.ErrorIs(t, NewPostgresPollRepository(db, nil).AddVote(ctx, "p-1", 9, "u-1", time.Now()), domain.ErrOptionNotFound)
	})
	t.Run("missing poll", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(status).WillReturnError(sql.ErrNoRows)
		assert.ErrorIs(t, NewPostgresPollRepository(db, nil).AddVote(ctx, "p-1", 0, "u-1", time.Now()), domain.ErrPollNotFound)
	})
}

func TestPollCloseIdempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPollRepository(db, nil)
	update := q("UPDATE welfare_polls SET status = 'closed' WHERE id = $1 AND status = 'open'")

	mock.ExpectExec(update).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	changed, err := repo.Close(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, changed)

	mock.ExpectExec(update).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT EXISTS")).WithArgs("p-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	changed, err = repo.Close(context.Background(), "p-1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestPollGetByIDLoadsVoters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPollRepository(db, nil)
	now := time.Now()

	mock.ExpectQuery(q("FROM welfare_polls WHERE id = $1")).WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "status", "created_by", "closes_at", "created_at"}).
			AddRow("p-1", "Eid fund", "", "open", "admin-1", nil, now))
	mock.ExpectQuery(q("FROM welfare_poll_options o")).WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"label", "voters"}).AddRow("yes", "{u-1,u-2}").AddRow("no", "{}"))

	p, err := repo.GetByID(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, p.Options, 2)
	assert.Equal(t, []string{"u-1", "u-2"}, p.Options[0].Voters)
	assert.Empty(t, p.Options[1].Voters)
	require.NotNil(t, p.Tally().Leader)
	assert.Equal(t, 0, *p.Tally().Leader)
}

var messageCols = []string{
	"id", "sender_id", "recipient_id", "group_id", "iv", "ciphertext", "tag",
	"attachment_url", "attachment_kind", "attachment_name", "created_at", "read_by",
}

func TestMessageListDirect(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMessageRepository(db, nil)
	now := time.Now()

	mock.ExpectQuery(q("ORDER BY created_at ASC, id ASC")).
		WithArgs("a", "b", 200).
		WillReturnRows(sqlmock.NewRows(messageCols).
			AddRow("m-1", "a", "b", "", "0a", "0b", "0c", nil, nil, nil, now, "{}").
			AddRow("m-2", "b", "a", "", nil, nil, nil, "https://cdn/x.jpg", "image", nil, now.Add(time.Second), "{a}"))

	msgs, err := repo.ListDirect(context.Background(), "a", "b", 200)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, &domain.Envelope{IV: "0a", Ciphertext: "0b", Tag: "0c"}, msgs[0].Envelope)
	assert.Nil(t, msgs[0].Attachment)
	assert.Nil(t, msgs[1].Envelope)
	assert.Equal(t, domain.AttachmentImage, msgs[1].Attachment.Kind)
	assert.Equal(t, []string{"a"}, msgs[1].ReadBy)
}

func TestMessageMarkReadUnknownMessage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMessageRepository(db, nil)

	mock.ExpectExec(q("INSERT INTO message_reads")).WillReturnError(&pq.Error{Code: "23503"})
	assert.ErrorIs(t, repo.MarkRead(context.Background(), "m-x", "u-1"), domain.ErrMessageNotFound)
}

func TestGroupIsMember(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresGroupRepository(db, nil)

	mock.ExpectQuery(q("FROM group_members WHERE group_id = $1 AND user_id = $2")).WithArgs("g-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"found", "member"}).AddRow(false, false))
	_, err := repo.IsMember(context.Background(), "g-1", "u-1")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestRoleUpsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoleRepository(db, nil)
	now := time.Now()

	mock.ExpectQuery(q("ON CONFLICT (name) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "Admin", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("r-existing", now))

	role := &domain.Role{Name: domain.RoleAdmin, Permissions: []string{"users.approve"}}
	require.NoError(t, repo.Upsert(context.Background(), role))
	assert.Equal(t, "r-existing", role.ID)
}

func TestAuditAppendPropagatesErrors(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresAuditRepository(db, nil)

	mock.ExpectExec(q("INSERT INTO audit_logs")).
		WithArgs("e-1", nil, domain.ActionInviteUsed, "inv-1", nil, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	err := repo.Append(context.Background(), &domain.AuditEntry{ID: "e-1", Action: domain.ActionInviteUsed, TargetID: "inv-1", CreatedAt: time.Now()})
	assert.Error(t, err)
}

func TestWelfareListBetweenOpenBounds(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresWelfareRepository(db, nil)
	now := time.Now()

	mock.ExpectQuery(q("FROM welfare_transactions")).
		WithArgs(nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "amount", "category", "reason", "beneficiary_name",
			"beneficiary_anonymized", "proof_docs", "created_by", "transaction_date", "created_at"}).
			AddRow("t-1", "income", int64(5000), "donation", "", "", false, "{}", "admin-1", now, now))

	txs, err := repo.ListBetween(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TransactionIncome, txs[0].Type)
	assert.Equal(t, int64(5000), txs[0].Amount)
}
