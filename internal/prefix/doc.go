// Package prefix computes the longest common leading text of two prompts.
//
// The analyzer answers one question: how much of two requests is identical
// from the first character onward, and could therefore be served from an
// inference engine's prefix cache. It provides:
//   - CommonPrefix: lock-step comparison that stops at the first difference
//   - CommonPrefixUntilMarker: the same comparison restricted to the text
//     before a marker such as "<|im_start|>user"
//   - DetectStructuredOverlap: equality check of the system sections
//   - BuildReport: sizes, coverage percentages, preview and divergence context
//   - FormatSize: binary human-readable sizes
//
// Characters are Unicode code points. All functions are pure and total over
// valid UTF-8 strings; reading files is done once up front by Load.
package prefix
