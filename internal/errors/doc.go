// Package errors provides structured, coded errors for transitiongroup.
//
// Every failure the reconciler core can surface has a registered code that
// maps to a category, a short message and a longer explanation:
//
//   - reconcile: render pass failures (duplicate keys, unkeyed retention)
//   - lifecycle: subscription handle misuse (double release, leaks)
//   - frame: malformed host frame streams
//   - config: invalid configuration files
//
// # Usage
//
//	err := errors.New("E100").
//	    WithDetail(`key "2" is already present in the current pass`).
//	    WithSuggestion("Give every child in the list a distinct key")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E100: Duplicate child key
//	//
//	//   key "2" is already present in the current pass
//	//
//	//   Hint: Give every child in the list a distinct key
//
// Errors compare by code, so a sentinel built with New matches any error
// built from the same code:
//
//	var ErrDuplicateKey = errors.New("E100")
//	stderrors.Is(err, ErrDuplicateKey) // true
package errors
