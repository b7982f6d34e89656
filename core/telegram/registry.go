// Package telegram wires telebot into the application: registry, routers,
// middleware chain, poller and the run loop.
package telegram

import (
	"sort"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/core/telegram/commands"
)

// Registry holds the command and callback tables routed by the routers.
type Registry struct {
	mu sync.RWMutex

	commands     map[string]commands.Command
	commandOrder []string

	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
	}
}

// RegisterCommand adds a command; re-registering a name replaces it.
func (r *Registry) RegisterCommand(cmd commands.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[cmd.Name]; !exists {
		r.commandOrder = append(r.commandOrder, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// LookupCommand fetches a command by its slash name.
func (r *Registry) LookupCommand(name string) (commands.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// ListCommands returns commands in registration order.
func (r *Registry) ListCommands() []commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]commands.Command, 0, len(r.commandOrder))
	for _, name := range r.commandOrder {
		out = append(out, r.commands[name])
	}
	return out
}

// RegisterCallback binds a handler to a callback unique key.
func (r *Registry) RegisterCallback(key string, h tele.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[key] = h
}

// GetCallback fetches the handler bound to a callback key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered callback keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound installs the handler for unroutable callback data.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbackNotFound = h
}

// CallbackNotFound returns the unknown-callback handler, may be nil.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback installs the handler for plain text outside any dialogue.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textFallback = h
}

// TextFallback returns the fallback text handler, may be nil.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// InitBotCommands pushes the visible command list to the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) error {
	var menu []tele.Command
	for _, cmd := range reg.ListCommands() {
		if cmd.Hidden || cmd.Description == "" {
			continue
		}
		menu = append(menu, tele.Command{Text: cmd.Name, Description: cmd.Description})
	}
	if len(menu) == 0 {
		return nil
	}
	return bot.SetCommands(menu)
}
