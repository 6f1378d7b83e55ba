package web

import _ "embed"

// IndexHTML is the single-page UI served at the root route.
//
//go:embed index.html
var IndexHTML []byte

// PreviewSandbox is the sandbox applied to generated documents, both on the
// page's preview iframe and on the standalone preview route.
const PreviewSandbox = "allow-scripts allow-forms allow-popups"
