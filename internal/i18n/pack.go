// Package i18n loads YAML language packs and renders message templates
// with named placeholders. Packs for en and zh-tw are embedded; a
// directory on disk can supply or override packs at runtime.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lang/*.yaml
var embedded embed.FS

var (
	// ErrUnknownLocale is returned when no pack exists for a language code.
	ErrUnknownLocale = errors.New("unknown locale")

	// ErrMissingKey is returned when a template key is absent from the pack.
	ErrMissingKey = errors.New("missing message key")

	// ErrMissingArg is returned when a template references a placeholder
	// the caller did not supply.
	ErrMissingArg = errors.New("missing placeholder argument")
)

// Pack is an immutable set of message templates for one locale, keyed by
// dot-path (e.g. "report.size_before").
type Pack struct {
	code string
	msgs map[string]string
}

// Load reads the pack for code. A file named <code>.yaml in dir takes
// precedence over the embedded pack of the same code.
func Load(code, dir string) (*Pack, error) {
	var data []byte
	if dir != "" {
		b, err := os.ReadFile(filepath.Join(dir, code+".yaml"))
		switch {
		case err == nil:
			data = b
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read language pack: %w", err)
		}
	}
	if data == nil {
		b, err := embedded.ReadFile("lang/" + code + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownLocale, code, strings.Join(Locales(), ", "))
		}
		data = b
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse language pack %q: %w", code, err)
	}

	msgs := make(map[string]string)
	flatten("", tree, msgs)
	return &Pack{code: code, msgs: msgs}, nil
}

// Locales lists the embedded language codes.
func Locales() []string {
	entries, err := embedded.ReadDir("lang")
	if err != nil {
		return nil
	}
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(codes)
	return codes
}

// Code returns the language code this pack was loaded for.
func (p *Pack) Code() string { return p.code }

// Placeholders look like {count} or {size:.2f}; the part after the colon
// is a printf format without the leading %.
var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::([^{}]+))?\}`)

// Render looks up key and substitutes the named placeholders from args.
// A missing key or an unsupplied placeholder is an error, never a blank.
func (p *Pack) Render(key string, args map[string]any) (string, error) {
	tmpl, ok := p.msgs[key]
	if !ok {
		return "", fmt.Errorf("%w: %q in locale %q", ErrMissingKey, key, p.code)
	}

	var renderErr error
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		name, spec := sub[1], sub[2]
		v, ok := args[name]
		if !ok {
			if renderErr == nil {
				renderErr = fmt.Errorf("%w: {%s} in %q", ErrMissingArg, name, key)
			}
			return m
		}
		return formatValue(v, spec)
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

func formatValue(v any, spec string) string {
	if spec == "" {
		return fmt.Sprintf("%v", v)
	}
	verb := "%" + spec
	// Float verbs accept any numeric argument.
	switch spec[len(spec)-1] {
	case 'f', 'e', 'g':
		return fmt.Sprintf(verb, toFloat(v))
	}
	return fmt.Sprintf(verb, v)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}
