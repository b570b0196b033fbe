package dictionary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed userlist.schema.json
var userListSchema []byte

// UserWord is one entry from the user's word list. Weight seeds the
// usage count so hand-added words rank above the base list immediately.
type UserWord struct {
	Word   string `json:"word"`
	Weight int    `json:"weight,omitempty"`
}

type userList struct {
	Version int        `json:"version"`
	Words   []UserWord `json:"words"`
}

var compiledUserSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("userlist.schema.json", bytes.NewReader(userListSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("userlist.schema.json")
}()

// LoadUserWordlist reads and validates the user's JSON word list. A
// missing file is not an error; the user just has no custom words yet.
func LoadUserWordlist(path string) ([]UserWord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read user word list: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("parse user word list: %w", err)
	}
	if err := compiledUserSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("validate user word list: %w", err)
	}

	var list userList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode user word list: %w", err)
	}
	return list.Words, nil
}
