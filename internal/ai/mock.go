package ai

import (
	"context"
	"fmt"
	"html"
	"strings"

	"prompt2app/internal/types"
)

// MockGenerator answers without calling a model, for local development.
type MockGenerator struct{}

var _ AppGenerator = MockGenerator{}

func (MockGenerator) GenerateApp(_ context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return types.GenerateAppOutput{}, ErrEmptyPrompt
	}
	return types.GenerateAppOutput{Code: fmt.Sprintf(mockPage, html.EscapeString(input.Prompt))}, nil
}

const mockPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Preview</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; min-height: 100vh; display: grid; place-items: center; background: linear-gradient(135deg, #1a73e8, #ff6f61); color: #fff; }
main { background: rgba(0, 0, 0, .25); padding: 2rem; border-radius: 1rem; max-width: 32rem; text-align: center; }
button { font-size: 1rem; padding: .6rem 1.2rem; border: 0; border-radius: .5rem; cursor: pointer; }
</style>
</head>
<body>
<main>
<h1>Mock preview</h1>
<p>%s</p>
<button id="count">Clicked 0 times</button>
</main>
<script>
var n = 0;
document.getElementById("count").addEventListener("click", function (e) {
  n++;
  e.target.textContent = "Clicked " + n + " times";
});
</script>
</body>
</html>
`
