// Package assistant is a client for OpenAI-compatible chat completion
// endpoints. It satisfies service.TextGenerator.
package assistant
