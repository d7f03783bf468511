package locator

import (
	"fmt"
	"strings"
)

// Kind selects how a Locator value is interpreted.
type Kind int

const (
	KindXPath Kind = iota + 1
	KindTag
	KindID
	KindClass
	KindName
	KindCSS
	KindLinkText
	KindPartialLinkText
)

// Names follow the WebDriver "using" strategies so page definitions written
// for Selenium read the same here.
var kindNames = map[Kind]string{
	KindXPath:           "xpath",
	KindTag:             "tag name",
	KindID:              "id",
	KindClass:           "class name",
	KindName:            "name",
	KindCSS:             "css selector",
	KindLinkText:        "link text",
	KindPartialLinkText: "partial link text",
}

var kindAliases = map[string]Kind{
	"tag":     KindTag,
	"class":   KindClass,
	"css":     KindCSS,
	"link":    KindLinkText,
	"partial": KindPartialLinkText,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind accepts the WebDriver strategy names plus a few short aliases.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return 0, &InvalidKindError{Name: s}
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &InvalidKindError{Kind: k}
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
