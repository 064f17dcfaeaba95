package permission

import "strings"

// Module is an enumerated permission namespace, one per business area.
type Module string

const (
	ModuleClients    Module = "clients"
	ModuleProjects   Module = "projects"
	ModuleInvoices   Module = "invoices"
	ModuleQuotations Module = "quotations"
	ModuleScrum      Module = "scrum"
	ModuleUsers      Module = "users"
	ModuleRoles      Module = "roles"
	ModuleReports    Module = "reports"
	ModuleSettings   Module = "settings"
)

// Modules lists every recognized module in canonical order.
var Modules = []Module{
	ModuleClients, ModuleProjects, ModuleInvoices, ModuleQuotations,
	ModuleScrum, ModuleUsers, ModuleRoles, ModuleReports, ModuleSettings,
}

// IsValid returns true if m is one of the recognized modules.
func (m Module) IsValid() bool {
	switch m {
	case ModuleClients, ModuleProjects, ModuleInvoices, ModuleQuotations,
		ModuleScrum, ModuleUsers, ModuleRoles, ModuleReports, ModuleSettings:
		return true
	}
	return false
}

// ParseModule converts a string to Module, case-insensitive.
// Returns ok=false if the string is not recognized.
func ParseModule(s string) (Module, bool) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", false
	}
	return m, true
}
