package codegen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hook kinds used in generated file names.
const (
	HookQuery         = "query"
	HookMutation      = "mutation"
	HookInfiniteQuery = "infiniteQuery"
)

var title = cases.Title(language.Und)

// splitWords breaks an identifier on separators and case changes:
// "get_HTTPStatus2" gives [get HTTP Status2].
func splitWords(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// ToPascalCase converts "get_message" and "my-canister" to "GetMessage"
// and "MyCanister".
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// ToCamelCase converts "get_message" to "getMessage".
func ToCamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// ReactorName is the variable holding the reactor of a canister.
func ReactorName(canister string) string {
	return ToCamelCase(canister) + "Reactor"
}

// ServiceTypeName is the type alias of a canister service.
func ServiceTypeName(canister string) string {
	return ToPascalCase(canister) + "Service"
}

// HookPrefix names the destructured hooks: use<Prefix>Query.
func HookPrefix(canister string) string {
	return ToPascalCase(canister)
}

// HookFileName is the file of a per-method hook: getMessageQuery.ts.
func HookFileName(method, kind string) string {
	return HookExportName(method, kind) + ".ts"
}

func HookExportName(method, kind string) string {
	return ToCamelCase(method) + ToPascalCase(kind)
}

// ReactHookName is the hook name with its use prefix: useGetMessageQuery.
func ReactHookName(method, kind string) string {
	return "use" + ToPascalCase(method) + ToPascalCase(kind)
}
