package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E109)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Store definition must be passed a store id",
		Detail:   "Every store is keyed by its id in the registry state tree. Pass the id as the first argument to Define or set Options.ID.",
		DocURL:   "https://depot.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "No active registry",
		Detail:   "A store was accessed without an explicit registry and no active registry is set. Call store.SetActiveRegistry or pass the registry to Use.",
		DocURL:   "https://depot.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or contains invalid values.",
		DocURL:   "https://depot.dev/docs/errors/E102",
	},

	// ============================================
	// Store Warnings (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryStore,
		Message:  "The state must be a plain object",
		Detail:   "The state initializer returned a value that is not a map. Return map[string]any from Options.State instead of a struct or other value.",
		DocURL:   "https://depot.dev/docs/errors/E110",
	},
	"E111": {
		Category: CategoryStore,
		Message:  "A getter cannot have the same name as another state property",
		Detail:   "The state field shadows the getter when reading through Store.Get. Rename one of them.",
		DocURL:   "https://depot.dev/docs/errors/E111",
	},
	"E112": {
		Category: CategoryStore,
		Message:  "Hydrated value does not fit the state cell",
		Detail:   "The registry state held a value of another type than the setup store's cell. The cell keeps its initial value.",
		DocURL:   "https://depot.dev/docs/errors/E112",
	},

	// ============================================
	// Action Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryAction,
		Message:  "Unknown action",
		Detail:   "The store has no action registered under this name.",
		DocURL:   "https://depot.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryAction,
		Message:  "Store does not support reset",
		Detail:   "Setup stores can only be reset when the setup function returns a \"$reset\" action.",
		DocURL:   "https://depot.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryAction,
		Message:  "Action panicked",
		Detail:   "The action body panicked. The panic is reported to OnError listeners and then re-raised.",
		DocURL:   "https://depot.dev/docs/errors/E122",
	},

	// ============================================
	// Plugin Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryPlugin,
		Message:  "Plugin registration failed",
		Detail:   "The plugin could not register its collectors or instruments.",
		DocURL:   "https://depot.dev/docs/errors/E130",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Unknown bench profile",
		Detail:   "The requested benchmark profile does not exist. Use fast, standard or stress.",
		DocURL:   "https://depot.dev/docs/errors/E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Seed file unreadable",
		Detail:   "The hydration seed file could not be read or decoded.",
		DocURL:   "https://depot.dev/docs/errors/E141",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command stopped with an error that carries no code of its own. The cause is shown above.",
		DocURL:   "https://depot.dev/docs/errors/E142",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Config file already exists",
		Detail:   "depot init does not overwrite an existing depot.yaml, depot.yml or depot.json.",
		DocURL:   "https://depot.dev/docs/errors/E143",
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
