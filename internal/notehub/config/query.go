package config

import "time"

// QueryConfig представляет настройки слоя кэширования списков.
type QueryConfig struct {
	PerPage          int           `yaml:"per_page" env:"NOTEHUB_QUERY_PER_PAGE" env-default:"6"`
	KeepPreviousData bool          `yaml:"keep_previous_data" env:"NOTEHUB_QUERY_KEEP_PREVIOUS" env-default:"true"`
	StaleTime        time.Duration `yaml:"stale_time" env:"NOTEHUB_QUERY_STALE_TIME" env-default:"1m"`
	GCTime           time.Duration `yaml:"gc_time" env:"NOTEHUB_QUERY_GC_TIME" env-default:"5m"`
}

// SearchConfig представляет настройки поиска.
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"NOTEHUB_SEARCH_DEBOUNCE" env-default:"300ms"`
}
