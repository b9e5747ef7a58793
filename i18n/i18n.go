// Package i18n provides internationalization support for trex itself.
//
// It wraps the gotext library to provide simple T() and N() functions
// for translating trex's user-facing strings. Translations are embedded
// in the binary via //go:embed and loaded at startup via Init().
//
// Usage:
//
//	import "github.com/localehub/trex/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Hello, world!"))
//	    fmt.Println(i18n.N("Found %d file", "Found %d files", count))
//	}
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the compiled .po/.mo translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/trex.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for trex.
const domain = "trex"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init initializes the i18n system. If lang is empty, it auto-detects
// from the environment variables LANGUAGE, LC_ALL, LC_MESSAGES, LANG
// (in that order, matching GNU gettext behavior).
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// langSources lists the environment variables GNU gettext consults,
// highest priority first. Only LANGUAGE holds a colon-separated
// preference list; the LC_* variables name a single locale.
var langSources = []struct {
	env  string
	list bool
}{
	{"LANGUAGE", true},
	{"LC_ALL", false},
	{"LC_MESSAGES", false},
	{"LANG", false},
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	for _, src := range langSources {
		val := os.Getenv(src.env)
		if val == "" {
			continue
		}
		candidates := []string{val}
		if src.list {
			candidates = strings.Split(val, ":")
		}
		for _, c := range candidates {
			if lang := normalizeLang(c); lang != "" {
				return lang
			}
		}
	}
	return "en"
}

// normalizeLang strips the encoding suffix (e.g. "ru_RU.UTF-8" becomes
// "ru_RU") and rejects the C and POSIX pseudo-locales, which mean "no
// translation".
func normalizeLang(val string) string {
	if idx := strings.IndexByte(val, '.'); idx >= 0 {
		val = val[:idx]
	}
	if val == "" || val == "C" || val == "POSIX" {
		return ""
	}
	return val
}
