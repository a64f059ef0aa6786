// Package engine implements the iterative tool-calling orchestration loop
// that powers hearth assistants.
//
// One invocation of the engine turns a natural-language task into a bounded
// sequence of tool invocations and a synthesized textual answer. Each
// iteration asks the language model for a plan (a batch of tool calls plus
// an optional final answer), executes the batch concurrently, then routes
// every result either straight into the answer (passthrough) or back into
// the next planning iteration (review). The loop stops when a plan has no
// calls, when a batch produces no review items, or when the recursion
// limit is reached.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Engine: The loop controller driving plan -> execute -> route under a
//     hard recursion limit and assembling the final answer.
//   - Registry: Immutable name -> tool mapping built from extension
//     catalogs, always containing the DIRECT_RESPONSE terminal tool.
//   - Extension / Source: The catalog collaborator supplying tool specs,
//     callables, and domain guidance text.
//   - planner: One model call per iteration producing a PlanStep, with a
//     structured-decode-first / JSON-scrape-fallback parse contract.
//   - executor: The failure containment boundary for tool bodies; every
//     outcome becomes an ExecutionResult, never an escaping error.
//   - RunTrace: The per-run append-only audit log of every execution.
//
// # Quick Start
//
//	cfg, _ := engine.ConfigFromEnv()
//	eng := engine.New(cfg, engine.WithSource(mySource))
//	if err := eng.Initialize(ctx, "kitchen"); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := eng.Run(ctx, engine.Task{Text: "plan dinner from my inventory"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.FinalText)
package engine
