package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /salesbot.contacts.v1.ContactService/Block -> block, contact).
// Resource is derived from the service name; action is a verb derived from the method name.
func ParseFullMethod(fullMethod string) ActionResource {
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(beforeSlash[dot+1:])}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Unblock"):
		return "unblock"
	case strings.HasPrefix(method, "Block"):
		return "block"
	case strings.HasPrefix(method, "Subscribe"):
		return "subscribe"
	case strings.HasPrefix(method, "Logout"):
		return "logout"
	default:
		return strings.ToLower(method)
	}
}

// Mutating reports whether the action changes state and should always be audited.
func (a ActionResource) Mutating() bool {
	switch a.Action {
	case "get", "list", "subscribe":
		return false
	}
	return true
}
