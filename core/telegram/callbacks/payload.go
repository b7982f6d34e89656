// Package callbacks holds helpers for composing and parsing inline
// callback data. Telebot encodes pressed buttons as "\f<unique>|<payload>";
// the registry routes on the unique key and handlers read the payload.
package callbacks

import (
	"strconv"
	"strings"
)

// ParseCallbackData splits raw callback data into its unique key and
// payload. The leading "\f" marker, when present, is stripped.
func ParseCallbackData(data string) (key, payload string) {
	data = strings.TrimPrefix(data, "\f")
	if idx := strings.IndexByte(data, '|'); idx >= 0 {
		return data[:idx], data[idx+1:]
	}
	return data, ""
}

// CallbackKey returns the unique key of raw callback data.
func CallbackKey(data string) string {
	key, _ := ParseCallbackData(data)
	return key
}

// CallbackPayload returns the payload part of raw callback data.
func CallbackPayload(data string) string {
	_, payload := ParseCallbackData(data)
	return payload
}

// PayloadInt64 parses the payload as a decimal int64.
func PayloadInt64(data string) (int64, bool) {
	payload := strings.TrimSpace(CallbackPayload(data))
	if payload == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PayloadInt parses the payload as a decimal int.
func PayloadInt(data string) (int, bool) {
	n, ok := PayloadInt64(data)
	if !ok {
		return 0, false
	}
	return int(n), true
}
