package screen

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnelbot/internal/storage"
)

type fakeUserSource struct {
	user   *storage.User
	lastID int
}

func (f *fakeUserSource) ByTelegramID(_ context.Context, id int64) (*storage.User, error) {
	cp := *f.user
	return &cp, nil
}

func (f *fakeUserSource) SetLastMessageID(_ context.Context, _ int64, messageID int) error {
	f.lastID = messageID
	f.user.LastBotMessageID = sql.NullInt64{Int64: int64(messageID), Valid: true}
	return nil
}

type fakeOverrides struct {
	o *storage.Override
}

func (f *fakeOverrides) Get(context.Context, string, string) (*storage.Override, error) {
	return f.o, nil
}

type sentMsg struct {
	out Outgoing
}

type fakeMessenger struct {
	sent    []sentMsg
	deleted []int
	nextID  int
}

func (f *fakeMessenger) Send(_ context.Context, out Outgoing) (int, error) {
	f.nextID++
	f.sent = append(f.sent, sentMsg{out: out})
	return f.nextID, nil
}

func (f *fakeMessenger) Delete(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func userEN() *storage.User {
	return &storage.User{
		TelegramID: 1,
		Language:   sql.NullString{String: "en", Valid: true},
	}
}

func TestRenderSendsAndRemembersMessage(t *testing.T) {
	users := &fakeUserSource{user: userEN()}
	m := &fakeMessenger{}
	r := NewRenderer(users, &fakeOverrides{}, m, t.TempDir())

	require.NoError(t, r.Render(context.Background(), 1, Main, nil))

	require.Len(t, m.sent, 1)
	assert.Equal(t, "<b>Main Menu</b>\n\nChoose an action below.", m.sent[0].out.Caption)
	assert.Empty(t, m.deleted)
	assert.Equal(t, 1, users.lastID)
}

func TestRenderDeletesPreviousMessage(t *testing.T) {
	u := userEN()
	u.LastBotMessageID = sql.NullInt64{Int64: 77, Valid: true}
	users := &fakeUserSource{user: u}
	m := &fakeMessenger{}
	r := NewRenderer(users, &fakeOverrides{}, m, t.TempDir())
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, 1, Main, nil))
	assert.Equal(t, []int{77}, m.deleted)

	// a second render deletes the message from the first
	require.NoError(t, r.Render(ctx, 1, Subscribe, nil))
	assert.Equal(t, []int{77, 1}, m.deleted)
	require.Len(t, m.sent, 2)
}

func TestRenderOverrideOverlay(t *testing.T) {
	users := &fakeUserSource{user: userEN()}
	m := &fakeMessenger{}
	custom := "Custom Title"
	ov := &fakeOverrides{o: &storage.Override{
		Lang:   "en",
		Screen: Main,
		Title:  &custom,
		// body left nil: the built-in text must survive
	}}
	r := NewRenderer(users, ov, m, t.TempDir())

	require.NoError(t, r.Render(context.Background(), 1, Main, nil))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "<b>Custom Title</b>\n\nChoose an action below.", m.sent[0].out.Caption)
}

func TestRenderPicksLanguageAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ru"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ru", "main.jpg"), []byte("jpg"), 0o644))

	u := userEN()
	u.Language = sql.NullString{String: "ru", Valid: true}
	users := &fakeUserSource{user: u}
	m := &fakeMessenger{}
	r := NewRenderer(users, &fakeOverrides{}, m, dir)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, 1, Main, nil))
	require.Len(t, m.sent, 1)
	assert.Equal(t, filepath.Join(dir, "ru", "main.jpg"), m.sent[0].out.PhotoPath)

	// no asset for this screen: plain text message
	require.NoError(t, r.Render(ctx, 1, Subscribe, nil))
	assert.Empty(t, m.sent[1].out.PhotoPath)
}

func TestRenderUnknownScreen(t *testing.T) {
	users := &fakeUserSource{user: userEN()}
	r := NewRenderer(users, &fakeOverrides{}, &fakeMessenger{}, t.TempDir())
	err := r.Render(context.Background(), 1, "bogus", nil)
	assert.Error(t, err)
}

func TestLangsScreenHasTitleOnly(t *testing.T) {
	u := userEN()
	u.Language = sql.NullString{}
	users := &fakeUserSource{user: u}
	m := &fakeMessenger{}
	r := NewRenderer(users, &fakeOverrides{}, m, t.TempDir())

	require.NoError(t, r.Render(context.Background(), 1, Langs, LangPicker()))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "<b>Choose language</b>", m.sent[0].out.Caption)
	assert.NotNil(t, m.sent[0].out.Markup)
}
