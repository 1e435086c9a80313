package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/gauravRathod674/OtakuRealm/color"
	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		if f.IsDuration() {
			return "duration"
		}
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.LogsWrite, true, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.LogsStderr, false, "Mirror log output to stderr")
	register(key.LogsMaxSize, 10, "Size in megabytes a log file may reach before it is rotated")
	register(key.LogsMaxBackups, 3, "Number of rotated log files to keep")
	register(key.LogsMaxAge, 28, "Days to keep rotated log files")
	register(key.LogsCompress, false, "Gzip rotated log files")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliIcons, "plain", "Icons variant.\nAvailable options are: emoji, plain, squares")
	register(key.CliVersionCheck, true, "Look up the latest release when printing the version")
	register(key.CachePath, "", "Root directory of the scraped record store.\nEmpty means the default cache location")
	register(key.CacheKeepHTML, true, "Keep the raw fetched page next to each record and re-parse it on a record miss")
	register(key.TTLVideoServers, "2m", "How long a video server listing stays fresh")
	register(key.TTLIframeSource, "24h", "How long an embedded player source stays fresh")
	register(key.FetchTimeout, "60s", "Timeout of a single plain HTTP fetch")
	register(key.FetchFingerprint, false, "Send plain HTTP fetches with a Chrome TLS fingerprint")
	register(key.BrowserBin, "", "Path to the Chrome/Chromium binary.\nEmpty means download or discover one automatically")
	register(key.BrowserHeadless, true, "Run browser sessions headless")
	register(key.BrowserUserAgent, constant.BrowserUserAgent, "User agent that replaces the automation signature of browser sessions")
	register(key.BrowserTimeout, "0s", "Wait-for-element timeout of browser sessions.\nZero keeps the per-resource default (20s to 30s)")
	register(key.AggregateWorkers, 3, "Parallel branches per aggregated request (1 to 10)")
	register(key.SearchWorkers, 10, "Parallel page fetches per search (1 to 10)")
	register(key.SearchMaxPages, 0, "Maximum number of result pages fetched per search.\nZero means all pages")
	register(key.SearchSuggestions, true, "Remember search queries and offer suggestions")
	register(key.HistorySaveOnWatch, true, "Record watch history for identified users")
	register(key.ServerAddress, ":8000", "Address the HTTP server listens on")
	register(key.ServerIdentityHeader, "X-User-ID", "Request header carrying the authenticated user id")
	register(key.ServerMetrics, true, "Expose prometheus metrics on /metrics")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(f *Field) string { return f.typeName() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename . }}`))
