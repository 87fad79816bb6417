// Package classify turns a free-text query into the capabilities required
// to handle it and a complexity tier.
//
// KeywordClassifier is deterministic and dependency-free; LLMClassifier
// asks a langchaingo model through a forced tool call and falls back to the
// keyword classifier whenever the model misbehaves, so classification never
// fails outright.
package classify
