package main

// inkdown-agent is the companion process for the Inkdown desktop editor.
// It handles release checking, changelog rendering, and self-updates so
// the editor shell never talks to the release feed directly.
func main() {
	Execute()
}
