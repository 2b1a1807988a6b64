// Package translate formats user-visible diagnostics for the host locale.
//
// Every error string in the module is built through From, so that a message
// catalog extracted with gotext can localize the register diagnostics.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

const DEFAULT_LOCALE = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("archreg: locale: %v", err)
	}

	UseLocales(locales...)
}

// UseLocales replaces the host locale preference list.
// With no locales, DEFAULT_LOCALE is selected.
func UseLocales(locales ...string) {
	if len(locales) == 0 {
		locales = []string{DEFAULT_LOCALE}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
