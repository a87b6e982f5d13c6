package server

// Test content constants shared by the server tests.
const (
	testMarkdownComplex = `# Complex Document

This has:
- Lists
- **Bold** and *italic*
- [Links](https://example.com)

` + "```go\nfunc test() {}\n```"

	testMarkdownScript = "<script>alert('xss')</script>\n\n<img src=x onerror=alert(1)>"
	testDescriptor     = "#go\n#cli\nA command line tool.\n"
	testGoSource       = "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

	// Security test paths
	testPathTraversal   = "/../../../etc/passwd"
	testPathURLEncoded  = "/%2e%2e/%2e%2e/etc/passwd"
	testPathNestedClimb = "/alpha/..%2f..%2fetc%2fpasswd"
	testPathNullByte    = "/alpha/main.go%00.txt"
)
