// Package security provides the safety gate between planning and script
// synthesis.
//
// The gate is advisory, not a security boundary: the built-in KeywordPolicy
// is a substring denylist over the plan intent and arguments and can be
// bypassed with synonyms or obfuscation. Policies are pluggable through the
// Policy interface:
//
//   - KeywordPolicy: built-in denylist, optionally extended from a YAML file
//   - LuaPolicy: user script defining check(intent, arguments)
//   - Chain: runs policies in order, first block wins
package security
