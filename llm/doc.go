// Package llm provides the provider-agnostic language-model client used by
// the hearth engine.
//
// The engine needs exactly one capability from a model: given a list of
// role-tagged text messages and an optional target output shape, return
// either text or text that conforms to the requested shape. This package
// fixes that boundary with a small set of types (Message, Request,
// Response), a Client that routes requests to registered provider adapters
// through a middleware chain, a typed error taxonomy with retryability
// classification, and a generic retry helper with exponential backoff.
//
// The bundled GollmAdapter backs the client with the gollm library, which
// handles provider-specific wire formats and API-key discovery. Additional
// adapters only need to implement ProviderAdapter.
//
//	client := llm.NewClient(
//	    llm.WithProvider("openai", adapter),
//	    llm.WithDefaultProvider("openai"),
//	)
//	resp, err := client.Complete(ctx, llm.Request{
//	    Model:    "gpt-5.2-mini",
//	    Messages: []llm.Message{llm.UserMessage("hello")},
//	})
package llm
