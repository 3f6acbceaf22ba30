package internal

import (
	"chat-sync/domain"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH"`
	RoomBufferSize       int           `env:"ROOM_BUFFER_SIZE,default=256"`
	TypingTTL            time.Duration `env:"TYPING_TTL,default=5s"`
	DedupCapacity        int           `env:"DEDUP_CAPACITY,default=10000"`
	SaveDebounce         time.Duration `env:"SAVE_DEBOUNCE,default=500ms"`
	SaveTimeout          time.Duration `env:"SAVE_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=1s"`
	SourceURL            string        `env:"SOURCE_URL,required=true"`
	Rooms                string        `env:"ROOMS,required=true"`
	AuthToken            string        `env:"AUTH_TOKEN,required=true"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharacterReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	LimitRejections      *int          `env:"LIMIT_REJECTIONS"`
	MetricsAddr          string        `env:"METRICS_ADDR,default=:9090"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10"`
}

// RoomIDs splits ROOMS, a comma separated list.
func (c Config) RoomIDs() []domain.RoomID {
	var ids []domain.RoomID
	for _, id := range splitList(c.Rooms) {
		ids = append(ids, domain.RoomID(id))
	}
	return ids
}

func (c Config) Words() []string {
	return splitList(c.CensoredWords)
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
