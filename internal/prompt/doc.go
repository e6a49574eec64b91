// Package prompt splits raw device-analysis prompts into their sections and
// lays them out again so that the shared instruction text forms a stable
// prefix across prompts.
//
// A raw prompt holds a system instruction block, a requirement document, the
// device output under analysis and optionally an expected output format.
// Only the device output differs between prompts of one batch; moving the
// expected output format ahead of the requirement document (or into the
// ChatML system turn) turns everything but the device output into a
// cacheable prefix.
package prompt
