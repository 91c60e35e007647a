package scanner

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// languageByExtension is consulted before chroma so common extensions
// resolve deterministically.
var languageByExtension = map[string]string{
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".mts":   "typescript",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".java":  "java",
	".cs":    "csharp",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".md":    "markdown",
	".rst":   "markdown",
	".txt":   "text",
	".ini":   "ini",
	".cfg":   "ini",
	".env":   "ini",
	".html":  "html",
	".css":   "css",
	".xml":   "xml",
}

// detectLanguage maps a filename to the engine's language tag, falling
// back to chroma's lexer registry for less common extensions.
func detectLanguage(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}

	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		return "text"
	}
	name := strings.ToLower(lexer.Config().Name)
	switch name {
	case "python", "python 2":
		return "python"
	case "javascript":
		return "javascript"
	case "typescript":
		return "typescript"
	case "c#":
		return "csharp"
	case "c++":
		return "cpp"
	case "bash", "zsh", "fish":
		return "shell"
	case "plaintext", "text":
		return "text"
	}
	return strings.ReplaceAll(name, " ", "")
}

// isProbablyText samples up to 8 KiB and rejects content containing a
// NUL byte.
func isProbablyText(content []byte) bool {
	sample := content
	if len(sample) > 8*1024 {
		sample = sample[:8*1024]
	}
	return !bytes.ContainsRune(sample, 0)
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		lines++
	}
	return lines
}
