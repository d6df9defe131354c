package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides, keyed by "METHOD pattern".
var routeOverrides = map[string]ActionResource{
	"DELETE /sessions/{token}":     {Action: "revoke", Resource: "sessions"},
	"POST /api/auth/sign-in/email": {Action: "sign_in", Resource: "auth"},
	"POST /api/auth/sign-up/email": {Action: "sign_up", Resource: "auth"},
	"POST /api/auth/sign-out":      {Action: "sign_out", Resource: "auth"},
}

// ParseRoute returns action and resource for a chi route pattern (e.g. GET /sessions).
// Action is a verb derived from the method: list/get for GET (get when the route has a path parameter),
// create for POST, update for PUT/PATCH, delete for DELETE.
// Resource is the first path segment after an optional /api prefix.
func ParseRoute(method, pattern string) ActionResource {
	method = strings.ToUpper(method)
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}
	if len(segments) == 0 || segments[0] == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	resource := segments[0]
	hasParam := strings.Contains(pattern, "{")
	return ActionResource{Action: methodToAction(method, hasParam), Resource: resource}
}

func methodToAction(method string, hasParam bool) string {
	switch method {
	case "GET", "HEAD":
		if hasParam {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
