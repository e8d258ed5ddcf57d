// Package config registers every configuration key with viper.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"text/template"

	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is one configuration key with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field for `reel config info`.
func (f Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env is the environment variable that overrides the field.
func (f Field) Env() string {
	return strings.ToUpper(constant.Reel + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Type names the Go type of the default value, which is also the type `config set` parses into.
func (f Field) Type() string {
	return reflect.TypeOf(f.Value).String()
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Env         string `json:"env"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.Type(),
		Env:         f.Env(),
	})
}

// Default maps each key to its field.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables, in registration order.
var EnvExposed []string

var fields = []Field{
	{key.ResolversSource, "", "Location of the resolver configuration.\nA local path or an http(s) URL. Empty means the resolvers.json file in the config directory"},
	{key.ResolversDefault, "", "Name of the resolver used when a request carries no hint.\nEmpty means the first configured resolver"},
	{key.ResolversCacheLifetime, 12, "Hours a remote resolver configuration is cached on disk"},
	{key.NetworkTimeout, 15, "Timeout in seconds for a single resolver request"},
	{key.NetworkUserAgent, constant.UserAgent, "User-Agent sent to resolver endpoints and sniffed pages"},
	{key.NetworkTLSFingerprint, false, "Use a Chrome TLS fingerprint for resolver requests"},
	{key.SniffEnabled, true, "Allow resolvers that need a headless browser"},
	{key.SniffTimeout, 20, "Deadline in seconds for a single browser sniff"},
	{key.SniffHeadless, true, "Run the sniffing browser without a window"},
	{key.SniffBrowserBin, "", "Path to a Chromium binary.\nEmpty means auto-detect or download"},
	{key.RulesAds, []string{}, "Extra ad and analytics hosts whose requests are never treated as media"},
	{key.ResolveConcurrency, 4, "Maximum number of URLs resolved at once by the resolve command"},
	{key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)"},
	{key.LogsWrite, false, "Write logs"},
	{key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace"},
	{key.LogsJson, false, "Use json format for logs"},
	{key.CliColored, true, "Enable colored CLI output"},
	{key.CliVersionCheck, true, "Check for a newer release when printing the version or help"},
}

func init() {
	for _, f := range fields {
		if _, exists := Default[f.Key]; exists {
			panic("duplicate config key: " + f.Key)
		}
		Default[f.Key] = f
		EnvExposed = append(EnvExposed, f.Key)
	}
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"key":    style.Fg(color.Accent),
	"label":  style.Fg(color.Blue),
	"value":  func(k string) any { return viper.Get(k) },
	"render": renderValue,
}).Parse(`{{ key .Key }} {{ faint .Type }}
{{ faint .Description }}
  {{ label "current" }}  {{ render (value .Key) }}
  {{ label "default" }}  {{ render .Value }}
  {{ label "env" }}      {{ .Env }}`))

func renderValue(v any) string {
	switch value := v.(type) {
	case bool:
		if value {
			return style.Fg(color.Green)("true")
		}
		return style.Fg(color.Red)("false")
	case string:
		if value == "" {
			return style.Faint(`""`)
		}
		return style.Fg(color.Yellow)(value)
	case []string:
		return style.Fg(color.Yellow)("[" + strings.Join(value, ", ") + "]")
	default:
		return fmt.Sprint(value)
	}
}
