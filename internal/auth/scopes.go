package auth

// Known OAuth scopes used by the vitals service.
const (
	ScopeVitalsWrite = "vitals:write"
	ScopeHealthRead  = "health:read"
	ScopeHealthWrite = "health:write"
)
