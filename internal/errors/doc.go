// Package errors provides coded, actionable errors for depot.
//
// Every error the store engine raises or logs carries a stable code
// (e.g. "E100") that maps to a registered template holding a category,
// a short message, a longer detail and a documentation URL.
//
// # Error Categories
//
//   - config: definition-time misconfiguration (missing store id)
//   - store: store construction misuse (non-plain state, name collisions)
//   - action: action lookup and invocation failures
//   - plugin: plugin pipeline failures
//   - cli: command line failures
//
// # Usage
//
//	err := errors.New("E100").
//	    WithStore("cart").
//	    WithSuggestion(`store.Define("cart", store.Options{...})`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E100: Store definition must be passed a store id
//	//
//	//   ...
//	//
//	//   Hint: store.Define("cart", store.Options{...})
//
// Errors compare by code, so a sentinel built with New matches any error
// carrying the same code:
//
//	var ErrUnknownAction = errors.New("E120")
//	stderrors.Is(errors.New("E120").WithStore("cart"), ErrUnknownAction) // true
package errors
