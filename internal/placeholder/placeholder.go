// Package placeholder rewrites query parameter values of the form {NAME}
// with secrets scoped to the upstream host and the parameter name.
//
// For host api.example.com and token={SECRET_X} the secret looked up is
// API_EXAMPLE_COM_TOKEN_SECRET_X.
package placeholder

import (
	"strings"

	"webAPIProxy/internal/models"
	"webAPIProxy/internal/secrets"
)

// MissingSecretError reports a placeholder whose secret is not in the namespace
type MissingSecretError struct {
	Param string
	Name  string
}

func (e *MissingSecretError) Error() string {
	return "No value for environment variable: " + e.Name
}

// Body returns the text between the braces of a placeholder value.
// ok is false for anything that is not exactly {...}.
func Body(value string) (string, bool) {
	if len(value) < 2 || value[0] != '{' || value[len(value)-1] != '}' {
		return "", false
	}
	return value[1 : len(value)-1], true
}

// HostPrefix upper-cases hostname and replaces every '.' with '_'
func HostPrefix(hostname string) string {
	return strings.ToUpper(strings.ReplaceAll(hostname, ".", "_"))
}

// SecretName builds <HOST_PREFIX>_<PARAM_UPPERCASED>_<BODY>. The body is used as written.
func SecretName(hostname, param, body string) string {
	return HostPrefix(hostname) + "_" + strings.ToUpper(param) + "_" + body
}

// Resolve substitutes every placeholder in target's query. Either all
// placeholders resolve or target is left untouched and an error is returned.
func Resolve(target *models.Target, ns secrets.Lookuper) error {
	hostname := target.Hostname()
	resolved := make(map[string]string)

	for _, param := range target.Query.Keys() {
		value, _ := target.Query.Get(param)
		body, ok := Body(value)
		if !ok {
			continue
		}

		name := SecretName(hostname, param, body)
		secret, found := ns.Lookup(name)
		if !found {
			return &MissingSecretError{Param: param, Name: name}
		}
		resolved[param] = secret
	}

	for param, secret := range resolved {
		target.Query.Set(param, secret)
	}
	return nil
}

// Count returns how many query values in target are placeholders
func Count(target *models.Target) int {
	n := 0
	for _, param := range target.Query.Keys() {
		value, _ := target.Query.Get(param)
		if _, ok := Body(value); ok {
			n++
		}
	}
	return n
}
