package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// ModerationConfig holds ban/rate-limit knobs.
type ModerationConfig struct {
	PasswordFailureLimit int `json:"password_failure_limit"` // failures per IP before an automatic ban
	ConnectionsPerMinute int `json:"connections_per_minute"` // per non-local IP
	ChatMessagesPerSec   int `json:"chat_messages_per_sec"`  // per sender, covers chat and name changes
	ChatBurst            int `json:"chat_burst"`
}

// AntiCheatConfig holds the heuristic thresholds for turn submissions.
// Setting a field to zero disables that check.
type AntiCheatConfig struct {
	MinReactionMS   int `json:"min_reaction_ms"`
	MinTypingEvents int `json:"min_typing_events"`
}

// BombPartyConfig holds defaults for the elimination word game.
type BombPartyConfig struct {
	TurnSeconds          int `json:"turn_seconds"`
	CountdownTicks       int `json:"countdown_ticks"`
	StartLives           int `json:"start_lives"`
	MaxLives             int `json:"max_lives"`
	SyllableChangeTurns  int `json:"syllable_change_turns"` // 0 = new syllable every turn
	BonusLetterMinLength int `json:"bonus_letter_min_length"`
	HardModeStartRound   int `json:"hard_mode_start_round"` // 0 = hard mode off
}

// WordleConfig holds defaults for the cooperative guess game.
type WordleConfig struct {
	WordLength  int `json:"word_length"`
	MaxAttempts int `json:"max_attempts"`
	TurnSeconds int `json:"turn_seconds"`
}

// WordChainConfig holds defaults for the chain word game.
type WordChainConfig struct {
	TurnSeconds        int `json:"turn_seconds"`
	StartLives         int `json:"start_lives"`
	BaseMinLength      int `json:"base_min_length"`
	HardModeStartRound int `json:"hard_mode_start_round"`
}

// Config holds all configurable server parameters.
type Config struct {
	WSPort           int    `json:"ws_port"`
	DictionarySource string `json:"dictionary_source"` // file path or http(s) URL; ".gz" suffix means gzip
	SyllableMinWords int    `json:"syllable_min_words"`
	MaxNameLength    int    `json:"max_name_length"`
	LobbyTTLSec      int    `json:"lobby_ttl_sec"`
	DatabaseURL      string `json:"-"` // env only, never from config.json
	AuthBaseURL      string `json:"auth_base_url"`

	Moderation ModerationConfig `json:"moderation"`
	AntiCheat  AntiCheatConfig  `json:"anticheat"`
	BombParty  BombPartyConfig  `json:"bombparty"`
	Wordle     WordleConfig     `json:"wordle"`
	WordChain  WordChainConfig  `json:"wordchain"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:           8080,
		DictionarySource: "words.txt.gz",
		SyllableMinWords: 500,
		MaxNameLength:    24,
		LobbyTTLSec:      30,
		Moderation: ModerationConfig{
			PasswordFailureLimit: 3,
			ConnectionsPerMinute: 30,
			ChatMessagesPerSec:   4,
			ChatBurst:            8,
		},
		AntiCheat: AntiCheatConfig{
			MinReactionMS:   300,
			MinTypingEvents: 2,
		},
		BombParty: BombPartyConfig{
			TurnSeconds:          12,
			CountdownTicks:       5,
			StartLives:           2,
			MaxLives:             4,
			SyllableChangeTurns:  0,
			BonusLetterMinLength: 11,
			HardModeStartRound:   6,
		},
		Wordle: WordleConfig{
			WordLength:  5,
			MaxAttempts: 6,
			TurnSeconds: 45,
		},
		WordChain: WordChainConfig{
			TurnSeconds:        20,
			StartLives:         2,
			BaseMinLength:      3,
			HardModeStartRound: 4,
		},
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideString(&cfg.DictionarySource, "DICTIONARY_SOURCE")
	overrideInt(&cfg.SyllableMinWords, "SYLLABLE_MIN_WORDS")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.LobbyTTLSec, "LOBBY_TTL_SEC")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")

	overrideInt(&cfg.Moderation.PasswordFailureLimit, "MOD_PASSWORD_FAILURE_LIMIT")
	overrideInt(&cfg.Moderation.ConnectionsPerMinute, "MOD_CONNECTIONS_PER_MINUTE")
	overrideInt(&cfg.Moderation.ChatMessagesPerSec, "MOD_CHAT_MESSAGES_PER_SEC")
	overrideInt(&cfg.Moderation.ChatBurst, "MOD_CHAT_BURST")

	overrideInt(&cfg.AntiCheat.MinReactionMS, "ANTICHEAT_MIN_REACTION_MS")
	overrideInt(&cfg.AntiCheat.MinTypingEvents, "ANTICHEAT_MIN_TYPING_EVENTS")

	overrideInt(&cfg.BombParty.TurnSeconds, "BOMBPARTY_TURN_SECONDS")
	overrideInt(&cfg.BombParty.CountdownTicks, "BOMBPARTY_COUNTDOWN_TICKS")
	overrideInt(&cfg.BombParty.StartLives, "BOMBPARTY_START_LIVES")
	overrideInt(&cfg.BombParty.MaxLives, "BOMBPARTY_MAX_LIVES")
	overrideInt(&cfg.BombParty.SyllableChangeTurns, "BOMBPARTY_SYLLABLE_CHANGE_TURNS")
	overrideInt(&cfg.BombParty.BonusLetterMinLength, "BOMBPARTY_BONUS_LETTER_MIN_LENGTH")
	overrideInt(&cfg.BombParty.HardModeStartRound, "BOMBPARTY_HARD_MODE_START_ROUND")

	overrideInt(&cfg.Wordle.WordLength, "WORDLE_WORD_LENGTH")
	overrideInt(&cfg.Wordle.MaxAttempts, "WORDLE_MAX_ATTEMPTS")
	overrideInt(&cfg.Wordle.TurnSeconds, "WORDLE_TURN_SECONDS")

	overrideInt(&cfg.WordChain.TurnSeconds, "WORDCHAIN_TURN_SECONDS")
	overrideInt(&cfg.WordChain.StartLives, "WORDCHAIN_START_LIVES")
	overrideInt(&cfg.WordChain.BaseMinLength, "WORDCHAIN_BASE_MIN_LENGTH")
	overrideInt(&cfg.WordChain.HardModeStartRound, "WORDCHAIN_HARD_MODE_START_ROUND")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
