package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// newTestDB returns a fresh in-memory database, closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestTheme(t *testing.T, db *DB, title string, start, end *model.Date) *model.Theme {
	t.Helper()
	theme := &model.Theme{Title: title, StartDate: start, EndDate: end}
	if err := db.CreateTheme(context.Background(), theme); err != nil {
		t.Fatalf("failed to create test theme: %v", err)
	}
	return theme
}

func strPtr(s string) *string { return &s }

func datePtr(d model.Date) *model.Date { return &d }

// =========================================================================
// THEMES
// =========================================================================

func TestCreateTheme(t *testing.T) {
	db := newTestDB(t)

	theme := &model.Theme{Title: "春の思い出", Description: strPtr("桜の話")}
	if err := db.CreateTheme(context.Background(), theme); err != nil {
		t.Fatalf("CreateTheme() error = %v", err)
	}

	if theme.ID == "" {
		t.Error("CreateTheme() did not set ID")
	}
	if theme.CreatedAt.IsZero() {
		t.Error("CreateTheme() did not set CreatedAt")
	}
	if !theme.IsActive {
		t.Error("CreateTheme() stored an inactive theme")
	}
}

func TestListActiveThemes_RoundTripsOptionalFields(t *testing.T) {
	db := newTestDB(t)
	start := model.Date{Year: 2026, Month: time.April, Day: 1}
	end := model.Date{Year: 2026, Month: time.April, Day: 30}

	withAll := &model.Theme{Title: "full", Description: strPtr("desc"), StartDate: &start, EndDate: &end}
	if err := db.CreateTheme(context.Background(), withAll); err != nil {
		t.Fatalf("CreateTheme() error = %v", err)
	}
	createTestTheme(t, db, "bare", nil, nil)

	themes, err := db.ListActiveThemes(context.Background(), repository.ThemeFilter{})
	if err != nil {
		t.Fatalf("ListActiveThemes() error = %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("ListActiveThemes() returned %d themes, want 2", len(themes))
	}

	bare, full := themes[0], themes[1]
	if bare.Description != nil || bare.StartDate != nil || bare.EndDate != nil {
		t.Errorf("bare theme optional fields = %v %v %v, want all nil", bare.Description, bare.StartDate, bare.EndDate)
	}
	if full.Description == nil || *full.Description != "desc" {
		t.Errorf("Description = %v, want %q", full.Description, "desc")
	}
	if full.StartDate == nil || *full.StartDate != start {
		t.Errorf("StartDate = %v, want %v", full.StartDate, start)
	}
	if full.EndDate == nil || *full.EndDate != end {
		t.Errorf("EndDate = %v, want %v", full.EndDate, end)
	}
}

func TestListActiveThemes_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	first := createTestTheme(t, db, "first", nil, nil)
	second := createTestTheme(t, db, "second", nil, nil)
	third := createTestTheme(t, db, "third", nil, nil)

	themes, err := db.ListActiveThemes(context.Background(), repository.ThemeFilter{})
	if err != nil {
		t.Fatalf("ListActiveThemes() error = %v", err)
	}

	want := []string{third.ID, second.ID, first.ID}
	if len(themes) != len(want) {
		t.Fatalf("ListActiveThemes() returned %d themes, want %d", len(themes), len(want))
	}
	for i, id := range want {
		if themes[i].ID != id {
			t.Errorf("themes[%d].ID = %q, want %q", i, themes[i].ID, id)
		}
	}
}

func TestListActiveThemes_Visibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	today := model.Date{Year: 2026, Month: time.October, Day: 16}

	open := createTestTheme(t, db, "open", nil, nil)
	ended := createTestTheme(t, db, "ended", nil, datePtr(today.AddDays(-1)))
	future := createTestTheme(t, db, "future", datePtr(today.AddDays(1)), nil)
	lastDay := createTestTheme(t, db, "last day", datePtr(today.AddDays(-7)), datePtr(today))
	removed := createTestTheme(t, db, "removed", nil, nil)
	if err := db.DeactivateTheme(ctx, removed.ID); err != nil {
		t.Fatalf("DeactivateTheme() error = %v", err)
	}

	staff, err := db.ListActiveThemes(ctx, repository.ThemeFilter{})
	if err != nil {
		t.Fatalf("ListActiveThemes(staff) error = %v", err)
	}
	assertIDs(t, "staff", staff, lastDay.ID, future.ID, ended.ID, open.ID)

	students, err := db.ListActiveThemes(ctx, repository.ThemeFilter{OpenOn: &today})
	if err != nil {
		t.Fatalf("ListActiveThemes(students) error = %v", err)
	}
	assertIDs(t, "students", students, lastDay.ID, open.ID)
}

func assertIDs(t *testing.T, label string, themes []model.Theme, want ...string) {
	t.Helper()
	if len(themes) != len(want) {
		t.Fatalf("%s: got %d themes, want %d", label, len(themes), len(want))
	}
	for i, id := range want {
		if themes[i].ID != id {
			t.Errorf("%s: themes[%d] = %q (%s), want %q", label, i, themes[i].ID, themes[i].Title, id)
		}
	}
}

func TestDeactivateTheme_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeactivateTheme(context.Background(), "cv37rs3pp9olc6atsptg")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeactivateTheme() error = %v, want ErrNotFound", err)
	}
}

func TestDeactivateTheme_Idempotent(t *testing.T) {
	db := newTestDB(t)
	theme := createTestTheme(t, db, "twice", nil, nil)

	for i := 0; i < 2; i++ {
		if err := db.DeactivateTheme(context.Background(), theme.ID); err != nil {
			t.Fatalf("DeactivateTheme() call %d error = %v", i+1, err)
		}
	}

	var active bool
	err := db.conn.QueryRowContext(context.Background(),
		`SELECT is_active FROM themes WHERE id = ?`, theme.ID).Scan(&active)
	if err != nil {
		t.Fatalf("reading is_active: %v", err)
	}
	if active {
		t.Error("theme still active after DeactivateTheme()")
	}
}

// =========================================================================
// MESSAGES
// =========================================================================

func TestCreateMessage_Defaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	msg := &model.Message{RadioName: "Taro", Content: "hello"}
	if err := db.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.ID == "" {
		t.Fatal("CreateMessage() did not set ID")
	}

	list, err := db.ListStaffMessages(ctx)
	if err != nil {
		t.Fatalf("ListStaffMessages() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListStaffMessages() returned %d, want 1", len(list))
	}

	got := list[0]
	if got.SchoolClass != nil || got.ThemeID != nil || got.SenderName != nil || got.IPAddress != nil {
		t.Errorf("optional fields = %v %v %v %v, want all nil", got.SchoolClass, got.ThemeID, got.SenderName, got.IPAddress)
	}
	if got.IsRead {
		t.Error("new message is_read = true, want false")
	}
	if got.ShareName || got.ShareClass || got.ShareTheme {
		t.Error("share flags default to true, want false")
	}
	if got.ThemeTitle != nil {
		t.Errorf("ThemeTitle = %q, want nil", *got.ThemeTitle)
	}
}

func TestListStaffMessages_JoinsThemeTitle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	theme := createTestTheme(t, db, "夏休み", nil, nil)
	withTheme := &model.Message{RadioName: "a", Content: "1", ThemeID: &theme.ID, ShareTheme: true}
	dangling := &model.Message{RadioName: "b", Content: "2", ThemeID: strPtr("cv37rs3pp9olc6atsptg")}
	noTheme := &model.Message{RadioName: "c", Content: "3", SenderName: strPtr("山田"), IPAddress: strPtr("10.0.0.1")}

	for _, m := range []*model.Message{withTheme, dangling, noTheme} {
		if err := db.CreateMessage(ctx, m); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}

	// A deactivated theme still names its messages.
	if err := db.DeactivateTheme(ctx, theme.ID); err != nil {
		t.Fatalf("DeactivateTheme() error = %v", err)
	}

	list, err := db.ListStaffMessages(ctx)
	if err != nil {
		t.Fatalf("ListStaffMessages() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListStaffMessages() returned %d, want 3", len(list))
	}

	// Newest first.
	if list[0].ID != noTheme.ID || list[1].ID != dangling.ID || list[2].ID != withTheme.ID {
		t.Fatalf("order = %s,%s,%s; want %s,%s,%s",
			list[0].ID, list[1].ID, list[2].ID, noTheme.ID, dangling.ID, withTheme.ID)
	}
	if list[0].ThemeTitle != nil {
		t.Errorf("no-theme message ThemeTitle = %q, want nil", *list[0].ThemeTitle)
	}
	if list[0].SenderName == nil || *list[0].SenderName != "山田" {
		t.Errorf("SenderName = %v, want 山田", list[0].SenderName)
	}
	if list[1].ThemeTitle != nil {
		t.Errorf("dangling message ThemeTitle = %q, want nil", *list[1].ThemeTitle)
	}
	if list[2].ThemeTitle == nil || *list[2].ThemeTitle != "夏休み" {
		t.Errorf("ThemeTitle = %v, want 夏休み", list[2].ThemeTitle)
	}
	if !list[2].ShareTheme {
		t.Error("ShareTheme not persisted")
	}
}

func TestMarkMessageRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	msg := &model.Message{RadioName: "Taro", Content: "hello"}
	if err := db.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := db.MarkMessageRead(ctx, msg.ID); err != nil {
			t.Fatalf("MarkMessageRead() call %d error = %v", i+1, err)
		}
	}

	list, err := db.ListStaffMessages(ctx)
	if err != nil {
		t.Fatalf("ListStaffMessages() error = %v", err)
	}
	if !list[0].IsRead {
		t.Error("is_read = false after MarkMessageRead()")
	}
}

func TestMarkMessageRead_UnknownIDIsNoop(t *testing.T) {
	db := newTestDB(t)

	if err := db.MarkMessageRead(context.Background(), "cv37rs3pp9olc6atsptg"); err != nil {
		t.Errorf("MarkMessageRead() on unknown id error = %v, want nil", err)
	}
}

// =========================================================================
// ACCESS TOKENS
// =========================================================================

func countTokens(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM access_tokens`).Scan(&n); err != nil {
		t.Fatalf("counting tokens: %v", err)
	}
	return n
}

func TestCurrentToken_NoneIssued(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CurrentToken(context.Background())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CurrentToken() error = %v, want ErrNotFound", err)
	}
}

func TestReplaceToken_KeepsExactlyOne(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.AccessToken{Token: "token-one"}
	if err := db.ReplaceToken(ctx, first); err != nil {
		t.Fatalf("ReplaceToken(first) error = %v", err)
	}
	second := &model.AccessToken{Token: "token-two"}
	if err := db.ReplaceToken(ctx, second); err != nil {
		t.Fatalf("ReplaceToken(second) error = %v", err)
	}

	if n := countTokens(t, db); n != 1 {
		t.Fatalf("access_tokens has %d rows, want 1", n)
	}

	current, err := db.CurrentToken(ctx)
	if err != nil {
		t.Fatalf("CurrentToken() error = %v", err)
	}
	if current.Token != "token-two" || !current.IsActive {
		t.Errorf("CurrentToken() = %+v, want active token-two", current)
	}

	if _, err := db.FindActiveToken(ctx, "token-two"); err != nil {
		t.Errorf("FindActiveToken(current) error = %v", err)
	}
	if _, err := db.FindActiveToken(ctx, "token-one"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindActiveToken(rotated) error = %v, want ErrNotFound", err)
	}
}

func TestAccessTokensTable_RejectsSecondRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceToken(ctx, &model.AccessToken{Token: "only"}); err != nil {
		t.Fatalf("ReplaceToken() error = %v", err)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO access_tokens (id, token, created_at, is_active) VALUES (?, ?, ?, 1)`,
		"other-id", "another", time.Now().UTC())
	if err == nil {
		t.Fatal("inserting a second token row succeeded, want a constraint error")
	}
	if n := countTokens(t, db); n != 1 {
		t.Errorf("access_tokens has %d rows, want 1", n)
	}
}
