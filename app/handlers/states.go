package handlers

import "github.com/m3rciful/skybot/core/telegram/state"

// Dialogue states. Each names the input the bot is waiting for.
const (
	StateAwaitingCity           state.State = "awaiting_city"
	StateAwaitingFavoriteAdd    state.State = "awaiting_favorite_add"
	StateAwaitingFavoriteRemove state.State = "awaiting_favorite_remove"
	StateAwaitingBroadcastText  state.State = "awaiting_broadcast_text"
	StateAwaitingBanUserID      state.State = "awaiting_ban_user_id"
	StateAwaitingBanReason      state.State = "awaiting_ban_reason"
	StateAwaitingUnbanUserID    state.State = "awaiting_unban_user_id"
)

// BanFlow carries the target across the two ban steps.
type BanFlow struct {
	TargetID int64
}

// BroadcastFlow carries the composed text until the admin confirms.
type BroadcastFlow struct {
	Text string
}
