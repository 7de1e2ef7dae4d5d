package utils

import "golang.org/x/text/language"

const (
	LocaleEn = "en"
	LocaleAr = "ar"
)

var localeMatcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// LocaleFromHeader picks en or ar from an Accept-Language header.
func LocaleFromHeader(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return LocaleEn
	}
	tag, _, _ := localeMatcher.Match(tags...)
	if base, _ := tag.Base(); base.String() == LocaleAr {
		return LocaleAr
	}
	return LocaleEn
}

// Localize returns the Arabic text for the ar locale when present, else English.
func Localize(locale, en, ar string) string {
	if locale == LocaleAr && ar != "" {
		return ar
	}
	return en
}
