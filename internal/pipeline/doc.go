// Package pipeline orchestrates one request through the stages
// classify -> synthesize -> validate -> execute -> audit -> notify ->
// respond. Control flow is strictly linear with short-circuit exits:
//
//	START -> UNKNOWN ----------------------------> CLARIFY (end)
//	      -> QUERY|UPDATE -> SYNTH fail ---------> CLARIFY (end)
//	                      -> SYNTH ok -> VALIDATE reject -> ERROR (end)
//	                                  -> VALIDATE accept -> EXECUTE fail -> ERROR (end)
//	                                                     -> EXECUTE ok, read-only -----------> RESPOND (end)
//	                                                     -> EXECUTE ok, mutation -> AUDIT -> NOTIFY -> RESPOND (end)
//
// Every terminal state yields exactly one response; nothing is retried
// inside the pipeline. Each stage is an injected interface so it can be
// tested in isolation with deterministic fakes.
package pipeline
