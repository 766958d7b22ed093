// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n renders user-facing messages (email subjects and bodies) in
// the language negotiated from Accept-Language.
package i18n

import (
	"context"
	"embed"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"codeberg.org/nutechnocrats/clubhub/internal/ctxkeys"
)

//go:embed translations/*.toml
var translationFS embed.FS

var supported = []language.Tag{language.English, language.German}

var (
	bundle   *i18n.Bundle
	initErr  error
	initOnce sync.Once
)

// Init loads the embedded translations. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		for _, file := range []string{
			"translations/active.en.toml",
			"translations/active.de.toml",
		} {
			if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
				initErr = err
				return
			}
		}
		bundle = b
	})
	return initErr
}

// WithLocale adds the locale to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	base, _ := lang.Base()
	return context.WithValue(ctx, ctxkeys.Locale{}, base.String())
}

// GetLocale returns the current locale from context.
func GetLocale(ctx context.Context) string {
	if locale, ok := ctx.Value(ctxkeys.Locale{}).(string); ok {
		return locale
	}
	return "en"
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return TData(ctx, messageID, nil)
}

// TData translates a message with template data. Unknown ids come back as is.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	if err := Init(); err != nil {
		return messageID
	}
	localizer := i18n.NewLocalizer(bundle, GetLocale(ctx), "en")
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// MatchLanguage matches the best language from Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	matcher := language.NewMatcher(supported)
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	return tag
}
