package markdown

import "strings"

// PlainExtension is used for fence languages the alias table does not know.
const PlainExtension = "txt"

var languageExtensions = map[string]string{
	"rust": "rs", "rs": "rs",
	"c":   "c",
	"cpp": "cpp", "c++": "cpp", "cxx": "cpp", "cc": "cpp",
	"h": "h", "hpp": "h", "hxx": "h", "hh": "h",
	"asm": "asm", "s": "asm",
	"javascript": "js", "js": "js", "jsx": "js",
	"typescript": "ts", "ts": "ts", "tsx": "ts",
	"html": "html", "htm": "html", "xhtml": "html",
	"css": "css", "scss": "css", "sass": "css", "less": "css",
	"php":    "php",
	"vue":    "vue",
	"svelte": "svelte",
	"python": "py", "py": "py", "pyw": "py", "pyx": "py",
	"ruby": "rb", "rb": "rb", "rbw": "rb",
	"perl": "pl", "pl": "pl", "pm": "pl",
	"lua":    "lua",
	"tcl":    "tcl",
	"java":   "java",
	"kotlin": "kt", "kt": "kt",
	"groovy":  "groovy",
	"scala":   "scala",
	"clojure": "clj", "clj": "clj",
	"cs": "cs", "csharp": "cs",
	"fs": "fs", "fsharp": "fs",
	"vb":    "vb",
	"shell": "sh", "sh": "sh", "bash": "sh", "zsh": "sh", "fish": "sh",
	"powershell": "ps1", "ps1": "ps1",
	"batch": "bat", "bat": "bat", "cmd": "bat",
	"go": "go", "golang": "go",
	"swift":  "swift",
	"r":      "r",
	"matlab": "matlab", "m": "matlab",
	"haskell": "hs", "hs": "hs",
	"elixir": "ex", "ex": "ex", "exs": "ex",
	"erlang": "erl", "erl": "erl",
	"ocaml": "ml", "ml": "ml",
	"lisp": "lisp", "el": "lisp",
	"scheme": "scm", "scm": "scm",
	"dart": "dart",
	"d":    "d",
	"json": "json",
	"yaml": "yaml", "yml": "yaml",
	"toml":    "toml",
	"xml":     "xml",
	"sql":     "sql",
	"graphql": "graphql", "gql": "graphql",
	"protobuf": "proto", "proto": "proto",
	"markdown": "md", "md": "md",
	"tex": "tex", "latex": "tex",
	"rst":      "rst",
	"asciidoc": "adoc", "adoc": "adoc",
}

// ExtensionFor maps a fence language tag to the file extension used to pick
// a highlighter grammar.
func ExtensionFor(lang string) string {
	if ext, ok := languageExtensions[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return ext
	}
	return PlainExtension
}
