package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/app/services"
	"github.com/m3rciful/skybot/app/storage"
	"github.com/m3rciful/skybot/core/telegram/state"
)

// fakeContext implements the slice of tele.Context the handlers touch.
// Sent messages are captured for assertions; unimplemented methods panic
// through the embedded nil interface, which is a test bug, not a pass.
type fakeContext struct {
	tele.Context
	sender *tele.User
	text   string
	args   []string
	cb     *tele.Callback
	kv     map[string]any

	mu   sync.Mutex
	sent []string
}

func newCtx(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID, Username: "tester"},
		text:   text,
		kv:     make(map[string]any),
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Bot() tele.API            { return nil }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Args() []string           { return f.args }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Message() *tele.Message   { return nil }
func (f *fakeContext) Get(key string) any       { return f.kv[key] }
func (f *fakeContext) Set(key string, v any)    { f.kv[key] = v }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	if s, ok := what.(string); ok {
		f.mu.Lock()
		f.sent = append(f.sent, s)
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no message was sent")
	}
	return f.sent[len(f.sent)-1]
}

const weatherBody = `{
	"location": {"name": "Paris", "country": "France", "region": ""},
	"current": {"temperature": 18, "feelslike": 17, "weather_descriptions": ["Sunny"],
		"humidity": 60, "wind_speed": 11, "wind_dir": "NW", "pressure": 1012,
		"uv_index": 4, "visibility": 10}
}`

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/fact") {
			w.Write([]byte(`{"fact": "Cats purr."}`))
			return
		}
		if r.URL.Query().Get("query") == "Nowhereville" {
			w.Write([]byte(`{"success": false, "error": {"code": 615, "info": "not found"}}`))
			return
		}
		w.Write([]byte(weatherBody))
	}))
	t.Cleanup(srv.Close)

	store, err := storage.Open(filepath.Join(t.TempDir(), "user_data.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	h := &Handlers{
		Store:   store,
		Weather: services.NewWeatherClient(services.WeatherOptions{APIKey: "k", BaseURL: srv.URL, CacheTTL: time.Minute}),
		Cats:    services.NewCatFactClient(services.CatFactOptions{BaseURL: srv.URL, CacheTTL: time.Minute}),
		FSM:     state.NewManager(),
		IsAdmin: func(id int64) bool { return id == 1 },
	}
	h.FSM.Bind(StateAwaitingCity, h.CityInput)
	h.FSM.Bind(StateAwaitingFavoriteAdd, h.FavoriteAddInput)
	h.FSM.Bind(StateAwaitingFavoriteRemove, h.FavoriteRemoveInput)
	h.FSM.Bind(StateAwaitingBroadcastText, h.BroadcastTextInput)
	h.FSM.Bind(StateAwaitingBanUserID, h.BanUserIDInput)
	h.FSM.Bind(StateAwaitingBanReason, h.BanReasonInput)
	h.FSM.Bind(StateAwaitingUnbanUserID, h.UnbanUserIDInput)
	return h
}

func TestStartRegistersUser(t *testing.T) {
	h := newTestHandlers(t)
	c := newCtx(100, "/start")

	if err := h.Start(c); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec, ok := h.Store.UserInfo(100)
	if !ok || rec.Username != "tester" {
		t.Fatalf("user not registered: %+v, %v", rec, ok)
	}
	if !strings.Contains(c.lastSent(t), "Hello") {
		t.Fatalf("first contact must greet as new: %q", c.lastSent(t))
	}

	c2 := newCtx(100, "/start")
	if err := h.Start(c2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c2.lastSent(t), "Welcome back") {
		t.Fatalf("repeat contact must greet as known: %q", c2.lastSent(t))
	}
}

func TestWeatherDialogue(t *testing.T) {
	h := newTestHandlers(t)

	c := newCtx(100, "/weather")
	if err := h.WeatherCommand(c); err != nil {
		t.Fatal(err)
	}
	if got := h.FSM.Get(100).State; got != StateAwaitingCity {
		t.Fatalf("state = %q; want awaiting_city", got)
	}

	reply := newCtx(100, "Paris")
	handled, err := h.FSM.Dispatch(reply, 100)
	if !handled || err != nil {
		t.Fatalf("Dispatch = %v, %v", handled, err)
	}
	if !strings.Contains(reply.lastSent(t), "Paris, France") {
		t.Fatalf("weather reply = %q", reply.lastSent(t))
	}
	if got := h.FSM.Get(100).State; got != state.Zero {
		t.Fatalf("dialogue must end after the city, state = %q", got)
	}
}

func TestWeatherCommandWithArgument(t *testing.T) {
	h := newTestHandlers(t)
	c := newCtx(100, "/weather Paris")
	c.args = []string{"Paris"}

	if err := h.WeatherCommand(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "18°C") {
		t.Fatalf("weather reply = %q", c.lastSent(t))
	}
	if got := h.FSM.Get(100).State; got != state.Zero {
		t.Fatal("argument form must not open a dialogue")
	}
}

func TestWeatherUnknownCity(t *testing.T) {
	h := newTestHandlers(t)
	c := newCtx(100, "")
	c.args = []string{"Nowhereville"}

	if err := h.WeatherCommand(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "couldn't find") {
		t.Fatalf("unknown city reply = %q", c.lastSent(t))
	}
}

func TestFavoritesFlow(t *testing.T) {
	h := newTestHandlers(t)

	start := newCtx(100, "")
	if err := h.FavoriteAddStart(start); err != nil {
		t.Fatal(err)
	}

	add := newCtx(100, "  paris ")
	if _, err := h.FSM.Dispatch(add, 100); err != nil {
		t.Fatal(err)
	}
	if got := h.Store.Favorites(100); len(got) != 1 || got[0] != "Paris" {
		t.Fatalf("favorites = %v", got)
	}

	_ = h.FavoriteAddStart(newCtx(100, ""))
	dup := newCtx(100, "PARIS")
	if _, err := h.FSM.Dispatch(dup, 100); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dup.lastSent(t), "already") {
		t.Fatalf("duplicate reply = %q", dup.lastSent(t))
	}

	_ = h.FavoriteRemoveStart(newCtx(100, ""))
	rm := newCtx(100, "paris")
	if _, err := h.FSM.Dispatch(rm, 100); err != nil {
		t.Fatal(err)
	}
	if got := h.Store.Favorites(100); len(got) != 0 {
		t.Fatalf("favorites after remove = %v", got)
	}
}

func TestBanFlow(t *testing.T) {
	h := newTestHandlers(t)
	var notices []string
	h.SetNotifier(func(userID int64, text string) error {
		notices = append(notices, text)
		return nil
	})
	h.Store.Register(200, "victim")

	admin := int64(1)
	if err := h.BanStart(newCtx(admin, "/ban")); err != nil {
		t.Fatal(err)
	}

	// Admins are unbannable.
	self := newCtx(admin, "1")
	if _, err := h.FSM.Dispatch(self, admin); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(self.lastSent(t), "cannot be banned") {
		t.Fatalf("admin target reply = %q", self.lastSent(t))
	}
	if got := h.FSM.Get(admin).State; got != state.Zero {
		t.Fatal("refusal must end the dialogue")
	}

	// Unknown users are refused.
	_ = h.BanStart(newCtx(admin, ""))
	unknown := newCtx(admin, "999")
	_, _ = h.FSM.Dispatch(unknown, admin)
	if !strings.Contains(unknown.lastSent(t), "unknown") {
		t.Fatalf("unknown target reply = %q", unknown.lastSent(t))
	}

	// Happy path with reason validation.
	_ = h.BanStart(newCtx(admin, ""))
	target := newCtx(admin, "200")
	_, _ = h.FSM.Dispatch(target, admin)
	if got := h.FSM.Get(admin).State; got != StateAwaitingBanReason {
		t.Fatalf("state = %q; want awaiting_ban_reason", got)
	}

	tooLong := newCtx(admin, strings.Repeat("x", banReasonMaxLen+1))
	_, _ = h.FSM.Dispatch(tooLong, admin)
	if got := h.FSM.Get(admin).State; got != StateAwaitingBanReason {
		t.Fatal("overlong reason must re-prompt, not abort")
	}

	reason := newCtx(admin, "spam")
	_, _ = h.FSM.Dispatch(reason, admin)
	if !h.Store.IsBanned(200) {
		t.Fatal("user must be banned")
	}
	if len(notices) != 1 || !strings.Contains(notices[0], "spam") {
		t.Fatalf("ban notice = %v", notices)
	}

	// Already-banned users are refused.
	_ = h.BanStart(newCtx(admin, ""))
	again := newCtx(admin, "200")
	_, _ = h.FSM.Dispatch(again, admin)
	if !strings.Contains(again.lastSent(t), "already banned") {
		t.Fatalf("repeat ban reply = %q", again.lastSent(t))
	}
}

func TestUnbanFlow(t *testing.T) {
	h := newTestHandlers(t)
	h.Store.Register(200, "victim")
	h.Store.Ban(200, "spam", 1)

	admin := int64(1)
	if err := h.UnbanStart(newCtx(admin, "/unban")); err != nil {
		t.Fatal(err)
	}
	lift := newCtx(admin, "200")
	if _, err := h.FSM.Dispatch(lift, admin); err != nil {
		t.Fatal(err)
	}
	if h.Store.IsBanned(200) {
		t.Fatal("ban must be lifted")
	}

	empty := newCtx(admin, "/unban")
	if err := h.UnbanStart(empty); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty.lastSent(t), "Nobody is banned") {
		t.Fatalf("empty ban list reply = %q", empty.lastSent(t))
	}
}

func TestBroadcastFlow(t *testing.T) {
	h := newTestHandlers(t)
	for i := int64(10); i < 35; i++ {
		h.Store.Register(i, "")
	}

	var mu sync.Mutex
	var delivered int
	h.Broadcaster = services.NewBroadcaster(func(userID int64, text string) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		if userID == 13 {
			return errors.New("blocked")
		}
		return nil
	}, 0)

	done := make(chan string, 1)
	h.SetNotifier(func(userID int64, text string) error {
		done <- text
		return nil
	})

	admin := int64(1)
	_ = h.BroadcastStart(newCtx(admin, "/broadcast"))
	draft := newCtx(admin, "hello everyone")
	if _, err := h.FSM.Dispatch(draft, admin); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(draft.lastSent(t), "25 users") {
		t.Fatalf("confirmation prompt = %q", draft.lastSent(t))
	}

	if err := h.BroadcastConfirm(newCtx(admin, "")); err != nil {
		t.Fatal(err)
	}

	select {
	case report := <-done:
		if !strings.Contains(report, "24 sent, 1 failed of 25") {
			t.Fatalf("report = %q", report)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast did not finish")
	}
}

func TestBroadcastCancel(t *testing.T) {
	h := newTestHandlers(t)
	admin := int64(1)
	_ = h.BroadcastStart(newCtx(admin, ""))
	_, _ = h.FSM.Dispatch(newCtx(admin, "draft"), admin)

	if err := h.BroadcastCancel(newCtx(admin, "")); err != nil {
		t.Fatal(err)
	}
	c := newCtx(admin, "")
	if err := h.BroadcastConfirm(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "no pending broadcast") {
		t.Fatalf("confirm after cancel = %q", c.lastSent(t))
	}
}

func TestCancelCommand(t *testing.T) {
	h := newTestHandlers(t)

	c := newCtx(100, "/cancel")
	if err := h.Cancel(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "Nothing to cancel") {
		t.Fatalf("idle cancel = %q", c.lastSent(t))
	}

	_ = h.WeatherCommand(newCtx(100, "/weather"))
	c2 := newCtx(100, "/cancel")
	if err := h.Cancel(c2); err != nil {
		t.Fatal(err)
	}
	if got := h.FSM.Get(100).State; got != state.Zero {
		t.Fatalf("cancel must clear the session, state = %q", got)
	}
}

func TestCatFactCommand(t *testing.T) {
	h := newTestHandlers(t)
	c := newCtx(100, "/catfact")
	if err := h.CatFact(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "Cats purr.") {
		t.Fatalf("cat fact reply = %q", c.lastSent(t))
	}
}

func TestWeatherDisabledWithoutClient(t *testing.T) {
	h := newTestHandlers(t)
	h.Weather = nil

	c := newCtx(100, "/weather")
	if err := h.WeatherCommand(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "not available") {
		t.Fatalf("disabled weather reply = %q", c.lastSent(t))
	}
	if got := h.FSM.Get(100).State; got != state.Zero {
		t.Fatal("disabled weather must not open a dialogue")
	}

	fav := newCtx(100, "")
	fav.cb = &tele.Callback{Data: "\f" + cbFavWeather + "|Paris"}
	if err := h.FavoriteWeather(fav); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fav.lastSent(t), "not available") {
		t.Fatalf("disabled favorite weather reply = %q", fav.lastSent(t))
	}
}

func TestBackToMainClearsDialogue(t *testing.T) {
	h := newTestHandlers(t)
	_ = h.WeatherCommand(newCtx(100, "/weather"))
	if got := h.FSM.Get(100).State; got != StateAwaitingCity {
		t.Fatalf("state = %q; want awaiting_city", got)
	}

	c := newCtx(100, "")
	if err := h.BackToMain(c); err != nil {
		t.Fatal(err)
	}
	if got := h.FSM.Get(100).State; got != state.Zero {
		t.Fatalf("back to main must clear the dialogue, state = %q", got)
	}
	if !strings.Contains(c.lastSent(t), "Main menu") {
		t.Fatalf("back to main reply = %q", c.lastSent(t))
	}
}

func TestStatsShowsOwnFavorites(t *testing.T) {
	h := newTestHandlers(t)
	h.Store.Register(100, "tester")
	h.Store.AddFavorite(100, "paris")

	c := newCtx(100, "/stats")
	if err := h.Stats(c); err != nil {
		t.Fatal(err)
	}
	got := c.lastSent(t)
	if !strings.Contains(got, "Users: 1") || !strings.Contains(got, "Paris") {
		t.Fatalf("stats reply = %q", got)
	}
}

func TestTextFallbackEchoesShortMessages(t *testing.T) {
	h := newTestHandlers(t)
	h.Store.Register(100, "tester")

	short := newCtx(100, "hello there")
	if err := h.Text(short); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(short.lastSent(t), "You said: hello there") {
		t.Fatalf("echo reply = %q", short.lastSent(t))
	}
	if rec, _ := h.Store.UserInfo(100); rec.RequestCount != 1 {
		t.Fatalf("echo must count as activity, RequestCount = %d", rec.RequestCount)
	}

	long := newCtx(100, strings.Repeat("a", echoMaxLen+1))
	if err := h.Text(long); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(long.lastSent(t), "Unknown command or message too long") {
		t.Fatalf("long text reply = %q", long.lastSent(t))
	}
}

func TestAllUsersPagination(t *testing.T) {
	h := newTestHandlers(t)
	for i := int64(1); i <= 45; i++ {
		h.Store.Register(i, "")
	}

	c := newCtx(1, "/allusers")
	if err := h.AllUsers(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "page 1/3") {
		t.Fatalf("page header = %q", c.lastSent(t))
	}

	c2 := newCtx(1, "")
	c2.cb = &tele.Callback{Data: "\f" + cbAdminUsers + "|3"}
	if err := h.AllUsers(c2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c2.lastSent(t), "page 3/3") {
		t.Fatalf("page header = %q", c2.lastSent(t))
	}
}
