package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeHook returns the hook used when decoding settings into Config.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToDateHook,
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// stringToDateHook parses YYYY-MM-DD strings into time.Time. An empty
// string decodes to the zero time.
func stringToDateHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return parsed, nil
}
