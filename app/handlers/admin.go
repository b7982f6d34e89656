package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/app/services"
	"github.com/m3rciful/skybot/core/telegram/callbacks"
	"github.com/m3rciful/skybot/core/telegram/format"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/middleware"
	"github.com/m3rciful/skybot/core/telegram/state"
)

const (
	usersPerPage    = 20
	banReasonMaxLen = 200
	timeLayout      = "2006-01-02 15:04"
)

// AdminPanel opens the moderation menu.
func (h *Handlers) AdminPanel(c tele.Context) error {
	return helpers.SendText(c, "🛠 Admin panel", adminMenu())
}

// AdminStats shows aggregate usage statistics.
func (h *Handlers) AdminStats(c tele.Context) error {
	stats := h.Store.Statistics()
	now := time.Now().UTC()
	activeToday := h.Store.ActiveSince(now.Add(-24 * time.Hour))
	activeWeek := h.Store.ActiveSince(now.Add(-7 * 24 * time.Hour))
	counters := middleware.GetCounters()

	var b strings.Builder
	b.WriteString("📊 Statistics\n\n")
	fmt.Fprintf(&b, "Users: %d total, %d active today, %d active this week\n",
		stats.TotalUsers, activeToday, activeWeek)
	fmt.Fprintf(&b, "Requests: %d all-time\n", stats.TotalRequests)
	fmt.Fprintf(&b, "Banned: %d\n", len(h.Store.BannedUsers()))
	fmt.Fprintf(&b, "Running since: %s UTC\n", stats.StartedAt.Format(timeLayout))
	fmt.Fprintf(&b, "\nThis process: %d updates, %d failed, %d messages sent\n",
		counters.UpdatesTotal, counters.UpdatesFailed, counters.MessagesSent)

	if top := h.Store.TopCities(5); len(top) > 0 {
		b.WriteString("\n🏙 Top cities:\n")
		for i, cc := range top {
			fmt.Fprintf(&b, "%d. %s — %d\n", i+1, cc.City, cc.Count)
		}
	}
	if recent := h.Store.RecentUsers(5); len(recent) > 0 {
		b.WriteString("\n🕐 Recently active:\n")
		for _, u := range recent {
			name := u.Record.Username
			if name == "" {
				name = "—"
			}
			fmt.Fprintf(&b, "• %d (@%s) at %s\n", u.ID, name, u.Record.LastActivity.Format(timeLayout))
		}
	}
	return helpers.SendText(c, b.String())
}

// AllUsers lists known users, paginated. The callback payload selects the
// page; the command always shows the first one.
func (h *Handlers) AllUsers(c tele.Context) error {
	page := 1
	if cb := c.Callback(); cb != nil {
		if n, ok := callbacks.PayloadInt(cb.Data); ok && n > 0 {
			page = n
		}
	}

	ids := h.Store.AllUserIDs()
	if len(ids) == 0 {
		return helpers.SendText(c, "No users yet.")
	}

	pages := (len(ids) + usersPerPage - 1) / usersPerPage
	if page > pages {
		page = pages
	}
	start := (page - 1) * usersPerPage
	end := start + usersPerPage
	if end > len(ids) {
		end = len(ids)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 Users %d–%d of %d (page %d/%d)\n\n", start+1, end, len(ids), page, pages)
	for _, id := range ids[start:end] {
		rec, ok := h.Store.UserInfo(id)
		if !ok {
			continue
		}
		name := format.EscapeMarkdown(rec.Username)
		if name == "" {
			name = "—"
		}
		banned := ""
		if h.Store.IsBanned(id) {
			banned = " 🚫"
		}
		fmt.Fprintf(&b, "%d · @%s · %d req%s\n", id, name, rec.RequestCount, banned)
	}

	markup := usersPageMenu(page, pages)
	if c.Callback() != nil && markup != nil {
		return helpers.EditOrSendMD(c, b.String(), markup)
	}
	if markup != nil {
		return helpers.SendText(c, b.String(), markup)
	}
	return helpers.SendText(c, b.String())
}

// UserInfo shows one user's record: /userinfo <id>.
func (h *Handlers) UserInfo(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return helpers.SendText(c, "Usage: /userinfo <user_id>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return helpers.SendText(c, "User id must be a number.")
	}

	rec, ok := h.Store.UserInfo(userID)
	if !ok {
		return helpers.SendText(c, fmt.Sprintf("User %d is unknown.", userID))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 User %d\n\n", userID)
	if rec.Username != "" {
		fmt.Fprintf(&b, "Username: @%s\n", rec.Username)
	}
	fmt.Fprintf(&b, "First seen: %s UTC\n", rec.FirstSeen.Format(timeLayout))
	fmt.Fprintf(&b, "Last activity: %s UTC\n", rec.LastActivity.Format(timeLayout))
	fmt.Fprintf(&b, "Requests: %d\n", rec.RequestCount)
	if favs := h.Store.Favorites(userID); len(favs) > 0 {
		fmt.Fprintf(&b, "Favorites: %s\n", strings.Join(favs, ", "))
	}
	if ban, banned := h.Store.BanInfo(userID); banned {
		fmt.Fprintf(&b, "\n🚫 Banned since %s UTC by %d\nReason: %s\n",
			ban.BannedAt.Format(timeLayout), ban.BannedBy, ban.Reason)
	}
	return helpers.SendText(c, b.String())
}

// AdminCache shows cache occupancy.
func (h *Handlers) AdminCache(c tele.Context) error {
	weatherLine := "disabled"
	if h.Weather != nil {
		weatherLine = fmt.Sprintf("%d cities", h.Weather.CacheLen())
	}
	text := fmt.Sprintf("🗄 Caches\n\nWeather: %s\nCat facts: %d entries",
		weatherLine, h.Cats.CacheLen())
	return helpers.SendText(c, text, cacheMenu())
}

// AdminCacheClear empties both caches.
func (h *Handlers) AdminCacheClear(c tele.Context) error {
	dropped := h.Cats.ClearCache()
	if h.Weather != nil {
		dropped += h.Weather.ClearCache()
	}
	return helpers.SendText(c, fmt.Sprintf("🧹 Cleared %d cached entries.", dropped))
}

// BanStart begins the ban dialogue.
func (h *Handlers) BanStart(c tele.Context) error {
	h.FSM.Set(senderID(c), state.Session{State: StateAwaitingBanUserID})
	return helpers.SendText(c, "Whom should I ban? Send the user id, or /cancel.")
}

// BanUserIDInput validates the ban target before asking for a reason.
func (h *Handlers) BanUserIDInput(c tele.Context, _ state.Session) error {
	adminID := senderID(c)

	targetID, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return helpers.SendText(c, "User id must be a number. Try again, or /cancel.")
	}
	if h.IsAdmin != nil && h.IsAdmin(targetID) {
		h.FSM.Clear(adminID)
		return helpers.SendText(c, "Administrators cannot be banned.")
	}
	if _, known := h.Store.UserInfo(targetID); !known {
		h.FSM.Clear(adminID)
		return helpers.SendText(c, fmt.Sprintf("User %d is unknown, nothing to ban.", targetID))
	}
	if h.Store.IsBanned(targetID) {
		h.FSM.Clear(adminID)
		return helpers.SendText(c, fmt.Sprintf("User %d is already banned.", targetID))
	}

	h.FSM.Set(adminID, state.Session{State: StateAwaitingBanReason, Flow: BanFlow{TargetID: targetID}})
	return helpers.SendText(c, fmt.Sprintf("Reason for banning %d? (1–%d characters)", targetID, banReasonMaxLen))
}

// BanReasonInput applies the ban and notifies the target.
func (h *Handlers) BanReasonInput(c tele.Context, s state.Session) error {
	adminID := senderID(c)
	flow, ok := state.FlowAs[BanFlow](s)
	if !ok {
		h.FSM.Clear(adminID)
		return helpers.SendText(c, "Something went wrong, start over with /ban.")
	}

	reason := strings.TrimSpace(c.Text())
	if len(reason) == 0 || len(reason) > banReasonMaxLen {
		return helpers.SendText(c, fmt.Sprintf("The reason must be 1–%d characters. Try again, or /cancel.", banReasonMaxLen))
	}

	h.FSM.Clear(adminID)
	if !h.Store.Ban(flow.TargetID, reason, adminID) {
		return helpers.SendText(c, fmt.Sprintf("User %d is already banned.", flow.TargetID))
	}
	h.notifyUser(flow.TargetID, fmt.Sprintf("You have been banned.\nReason: %s", reason))
	return helpers.SendText(c, fmt.Sprintf("🚫 User %d banned.", flow.TargetID))
}

// UnbanStart begins the unban dialogue.
func (h *Handlers) UnbanStart(c tele.Context) error {
	banned := h.Store.BannedUsers()
	if len(banned) == 0 {
		return helpers.SendText(c, "Nobody is banned.")
	}
	h.FSM.Set(senderID(c), state.Session{State: StateAwaitingUnbanUserID})
	return helpers.SendText(c, "Whom should I unban? Send the user id, or /cancel.")
}

// UnbanUserIDInput lifts the ban and notifies the user.
func (h *Handlers) UnbanUserIDInput(c tele.Context, _ state.Session) error {
	adminID := senderID(c)

	targetID, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return helpers.SendText(c, "User id must be a number. Try again, or /cancel.")
	}
	h.FSM.Clear(adminID)

	if !h.Store.Unban(targetID) {
		return helpers.SendText(c, fmt.Sprintf("User %d is not banned.", targetID))
	}
	h.notifyUser(targetID, "Your ban has been lifted. Welcome back!")
	return helpers.SendText(c, fmt.Sprintf("✅ User %d unbanned.", targetID))
}

// BroadcastStart begins composing a broadcast.
func (h *Handlers) BroadcastStart(c tele.Context) error {
	h.FSM.Set(senderID(c), state.Session{State: StateAwaitingBroadcastText})
	return helpers.SendText(c, "Send the broadcast text, or /cancel.")
}

// BroadcastTextInput stores the draft and asks for confirmation.
func (h *Handlers) BroadcastTextInput(c tele.Context, _ state.Session) error {
	adminID := senderID(c)
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return helpers.SendText(c, "The broadcast text cannot be empty. Try again, or /cancel.")
	}

	audience := len(h.Store.AllUserIDs())
	h.FSM.Set(adminID, state.Session{Flow: BroadcastFlow{Text: text}})
	return helpers.SendText(c,
		fmt.Sprintf("Send this to %d users?\n\n%s", audience, text),
		broadcastConfirmMenu())
}

// BroadcastConfirm launches the delivery in the background. The status
// message is edited with cumulative progress every 10 sends and the admin
// gets a final report when the run finishes.
func (h *Handlers) BroadcastConfirm(c tele.Context) error {
	adminID := senderID(c)
	flow, ok := state.FlowAs[BroadcastFlow](h.FSM.Get(adminID))
	h.FSM.Clear(adminID)
	if !ok {
		return helpers.SendText(c, "There is no pending broadcast. Start over with /broadcast.")
	}

	ids := h.Store.AllUserIDs()
	announce := fmt.Sprintf("📣 Broadcasting to %d users…", len(ids))

	var progress services.ProgressFunc
	bot := c.Bot()
	if bot != nil && c.Chat() != nil {
		if status, err := bot.Send(c.Chat(), announce); err == nil && status != nil {
			progress = func(sent, failed, total int) {
				_, _ = bot.Edit(status, fmt.Sprintf("📣 Broadcast in progress…\n\n%d/%d done\n✅ %d sent\n❌ %d failed",
					sent+failed, total, sent, failed))
			}
		}
	}
	if progress == nil {
		if err := helpers.SendText(c, announce); err != nil {
			return err
		}
	}

	go func() {
		report := h.Broadcaster.Run(context.Background(), ids, flow.Text, progress)
		h.notifyUser(adminID, fmt.Sprintf("Broadcast done: %d sent, %d failed of %d.",
			report.Sent, report.Failed, report.Total))
	}()
	return nil
}

// BroadcastCancel discards the pending draft.
func (h *Handlers) BroadcastCancel(c tele.Context) error {
	h.FSM.Clear(senderID(c))
	return helpers.SendText(c, "Broadcast cancelled.")
}
