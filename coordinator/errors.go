package coordinator

import (
	"github.com/s0up4200/dexbrowse/httpclient"
)

// Category selects the illustration a UI shows next to an error
type Category string

const (
	CategoryOffline  Category = "offline"
	CategoryNotFound Category = "not_found"
	CategoryServer   Category = "server"
	CategoryTimeout  Category = "timeout"
	CategoryGeneric  Category = "generic"
)

// DisplayError is a failure ready to be shown to a user
type DisplayError struct {
	Kind     httpclient.Kind
	Category Category
	Title    string
	Message  string
}

// Error implements the error interface
func (e DisplayError) Error() string {
	return e.Title + ": " + e.Message
}

// Describe maps an error kind to its user-facing form. Cancellation is never
// shown, so it reports false.
func Describe(kind httpclient.Kind) (DisplayError, bool) {
	switch kind {
	case httpclient.KindCancelled:
		return DisplayError{}, false
	case httpclient.KindOffline:
		return DisplayError{
			Kind:     kind,
			Category: CategoryOffline,
			Title:    "No connection",
			Message:  "Check your internet connection and try again.",
		}, true
	case httpclient.KindNotFound:
		return DisplayError{
			Kind:     kind,
			Category: CategoryNotFound,
			Title:    "Not found",
			Message:  "We couldn't find that Pokémon.",
		}, true
	case httpclient.KindServer:
		return DisplayError{
			Kind:     kind,
			Category: CategoryServer,
			Title:    "PokéAPI error",
			Message:  "The server is unstable. Try again later.",
		}, true
	case httpclient.KindTimeout:
		return DisplayError{
			Kind:     kind,
			Category: CategoryTimeout,
			Title:    "Took too long",
			Message:  "Your connection is too slow.",
		}, true
	default:
		return DisplayError{
			Kind:     kind,
			Category: CategoryGeneric,
			Title:    "Oops!",
			Message:  "An unexpected error occurred.",
		}, true
	}
}
