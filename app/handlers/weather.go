package handlers

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skybot/app/services"
	"github.com/m3rciful/skybot/core/telegram/helpers"
	"github.com/m3rciful/skybot/core/telegram/state"
)

// WeatherCommand asks for a city, or answers directly when the command
// carries one as an argument.
func (h *Handlers) WeatherCommand(c tele.Context) error {
	h.touch(c)
	if h.Weather == nil {
		return helpers.SendText(c, "The weather feature is not available on this bot.", mainMenu())
	}
	if args := c.Args(); len(args) > 0 {
		return h.sendWeather(c, strings.Join(args, " "))
	}
	h.FSM.Set(senderID(c), state.Session{State: StateAwaitingCity})
	return helpers.SendText(c, "Which city? Type its name, or /cancel.")
}

// CityInput consumes the city name typed during the weather dialogue.
func (h *Handlers) CityInput(c tele.Context, _ state.Session) error {
	h.touch(c)
	h.FSM.Clear(senderID(c))
	return h.sendWeather(c, c.Text())
}

func (h *Handlers) sendWeather(c tele.Context, city string) error {
	if h.Weather == nil {
		return helpers.SendText(c, "The weather feature is not available on this bot.", mainMenu())
	}
	snap, err := h.Weather.Fetch(helpers.ContextFrom(c), city)
	if errors.Is(err, services.ErrLocationNotFound) {
		return helpers.SendText(c, fmt.Sprintf("I couldn't find “%s”. Check the spelling and try again.", strings.TrimSpace(city)))
	}
	if err != nil {
		return helpers.SendText(c, "The weather service is unavailable right now. Please try again later.")
	}
	return helpers.SendText(c, formatWeather(snap), mainMenu())
}

func formatWeather(s services.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌍 %s, %s\n", s.Location.Name, s.Location.Country)
	if len(s.Current.Descriptions) > 0 {
		fmt.Fprintf(&b, "%s\n", strings.Join(s.Current.Descriptions, ", "))
	}
	fmt.Fprintf(&b, "\n🌡 %d°C (feels like %d°C)\n", s.Current.Temperature, s.Current.FeelsLike)
	fmt.Fprintf(&b, "💧 Humidity: %d%%\n", s.Current.Humidity)
	fmt.Fprintf(&b, "💨 Wind: %d km/h %s\n", s.Current.WindSpeed, s.Current.WindDir)
	fmt.Fprintf(&b, "🔽 Pressure: %d hPa\n", s.Current.Pressure)
	fmt.Fprintf(&b, "☀️ UV index: %d\n", s.Current.UVIndex)
	fmt.Fprintf(&b, "👁 Visibility: %d km", s.Current.Visibility)
	return b.String()
}
