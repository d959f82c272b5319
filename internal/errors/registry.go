package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconcile Errors (E100, E105)
	// ============================================

	"E100": {
		Category: CategoryReconcile,
		Message:  "Duplicate child key",
		Detail:   "Two children in the same render pass resolve to the same key. The render pass was aborted.",
	},
	"E105": {
		Category: CategoryReconcile,
		Message:  "Retained child has no key",
		Detail:   "Only keyed children can be retained for an exit transition.",
	},

	// ============================================
	// Lifecycle Errors (E101-E102)
	// ============================================

	"E101": {
		Category: CategoryLifecycle,
		Message:  "Subscription released twice",
		Detail:   "A subscription handle must be released exactly once.",
	},
	"E102": {
		Category: CategoryLifecycle,
		Message:  "Subscription was never released",
		Detail:   "A subscription handle was garbage collected without being released. Its callback stays registered and may fire against removed UI.",
	},

	// ============================================
	// Frame Errors (E103-E104)
	// ============================================

	"E103": {
		Category: CategoryFrame,
		Message:  "Malformed frame stream",
		Detail:   "The flat frame stream does not describe a well-formed tree.",
	},
	"E104": {
		Category: CategoryFrame,
		Message:  "Uncomparable child key",
		Detail:   "Child keys are compared by value and must be comparable (no slices, maps or funcs).",
	},

	// ============================================
	// Config Errors (E120-E121)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file contains an invalid value.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No transitiongroup.json was found in the given directory.",
	},

	// ============================================
	// CLI Errors (E130)
	// ============================================

	"E130": {
		Category: CategoryCLI,
		Message:  "Invalid replay scenario",
		Detail:   "The scenario file could not be read, parsed or validated.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
