// Package i18n localizes the messages printed to the terminal. Logs stay in English.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/chronos-ics/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator renders user-facing messages in one language.
type Translator struct {
	// Lang is the resolved language code (one of Languages).
	Lang string
	// Languages lists the locales found in the embedded files.
	Languages []string

	localizer *goi18n.Localizer
}

// New loads the embedded locales and resolves lang against them.
// Unknown or empty languages fall back to config.DefaultLanguage; regional
// variants ("fr-CA", "fr_FR.UTF-8") match their base language.
func New(lang string) *Translator {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	detected := loadLocales(bundle)
	resolved := Resolve(lang, detected)

	return &Translator{
		Lang:      resolved,
		Languages: detected,
		localizer: goi18n.NewLocalizer(bundle, resolved),
	}
}

func loadLocales(bundle *goi18n.Bundle) []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return nil
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		detectedLangs = append(detectedLangs, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	return detectedLangs
}

// Resolve picks the best match for lang among available, using BCP 47 matching.
func Resolve(lang string, available []string) string {
	if len(available) == 0 {
		return config.DefaultLanguage
	}

	// POSIX locales look like fr_FR.UTF-8.
	lang, _, _ = strings.Cut(lang, ".")
	lang = strings.ReplaceAll(lang, "_", "-")

	tags := make([]language.Tag, 0, len(available)+1)
	tags = append(tags, language.Make(config.DefaultLanguage))
	for _, code := range available {
		tags = append(tags, language.Make(code))
	}

	_, idx, conf := language.NewMatcher(tags).Match(language.Make(lang))
	if conf == language.No || idx == 0 {
		return config.DefaultLanguage
	}
	return available[idx-1]
}

// T translates key with the optional template data. Unknown keys return the key itself.
func (t *Translator) T(key string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return key
	}
	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}
