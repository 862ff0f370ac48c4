// Package authz implements bearer-token authorization for the API's write
// surface. Tokens are stored bcrypt-hashed in a YAML file; the plaintext
// token travels in the Authorization header and never touches disk.
package authz

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	ActionRead  = "file:read"
	ActionWrite = "file:write"
)

var allowedActions = map[string]struct{}{
	ActionRead:  {},
	ActionWrite: {},
}

type File struct {
	Users []User `yaml:"users"`
}

type User struct {
	Name      string   `yaml:"name"`
	TokenHash string   `yaml:"token_hash"`
	Allow     []string `yaml:"allow"`
}

type Principal struct {
	Name string
}

type Engine struct {
	users []User
}

// NewEngine builds an engine from already-validated users; LoadFile is the
// usual constructor, this one serves tests and provisioning tools.
func NewEngine(users []User) *Engine {
	return &Engine{users: users}
}

func AllowedActions() []string {
	actions := make([]string, 0, len(allowedActions))
	for action := range allowedActions {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

func LoadFile(path string) (*Engine, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorization file %q: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse authorization file %q: %w", path, err)
	}

	if err := validate(file); err != nil {
		return nil, err
	}

	return &Engine{users: file.Users}, nil
}

// Authenticate resolves the principal presenting token. The comparison is
// linear over the configured users; the user count here is a handful of
// console admins, not a directory.
func (e *Engine) Authenticate(token string) (Principal, bool) {
	if token == "" {
		return Principal{}, false
	}
	for _, user := range e.users {
		if bcrypt.CompareHashAndPassword([]byte(user.TokenHash), []byte(token)) == nil {
			return Principal{Name: user.Name}, true
		}
	}
	return Principal{}, false
}

func (e *Engine) IsAllowed(principal Principal, action string) bool {
	for _, user := range e.users {
		if user.Name != principal.Name {
			continue
		}
		for _, allowed := range user.Allow {
			if allowed == action {
				return true
			}
		}
		return false
	}
	return false
}

// HashToken produces the bcrypt hash stored in the authorization file;
// exposed for provisioning and tests.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

func validate(file File) error {
	var errs []error
	if len(file.Users) == 0 {
		errs = append(errs, errors.New("authorization validation: at least one user is required"))
	}

	seenNames := make(map[string]struct{}, len(file.Users))
	for idx, user := range file.Users {
		prefix := fmt.Sprintf("authorization validation: users[%d]", idx)
		if user.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if _, exists := seenNames[user.Name]; exists {
				errs = append(errs, fmt.Errorf("%s.name %q is duplicated", prefix, user.Name))
			}
			seenNames[user.Name] = struct{}{}
		}
		if _, err := bcrypt.Cost([]byte(user.TokenHash)); err != nil {
			errs = append(errs, fmt.Errorf("%s.token_hash is not a valid bcrypt hash", prefix))
		}
		if len(user.Allow) == 0 {
			errs = append(errs, fmt.Errorf("%s.allow must contain at least one action", prefix))
		}
		for actionIdx, action := range user.Allow {
			if _, ok := allowedActions[action]; !ok {
				errs = append(errs, fmt.Errorf("%s.allow[%d] action %q is invalid (valid: %v)", prefix, actionIdx, action, AllowedActions()))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
